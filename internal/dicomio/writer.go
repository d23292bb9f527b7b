package dicomio

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/okieraised/gonii"
	"github.com/okieraised/gonii/pkg/nifti"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"
const ctImageStorage = "1.2.840.10008.5.1.4.1.1.2"

// SeriesWriter re-encodes a 3D NIfTI volume as a DICOM CT series, one file
// per slice, with per-slice spatial metadata (position, orientation,
// spacing) derived from the volume's direction cosines and origin.
type SeriesWriter struct{}

func (SeriesWriter) WriteSeries(niftiPath, outDir string) error {
	nii, err := loadNifti(niftiPath)
	if err != nil {
		return err
	}
	nx, ny, nz := niiDims(nii)
	if nz < 2 {
		return fmt.Errorf("series for %s: %w", niftiPath, models.ErrInsufficientSlices)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create series dir %s: %w", outDir, err)
	}

	aff := nii.GetAffine().M
	spacing, rowCos, colCos, origin := spatialFromAffine(aff)
	normal := cross(rowCos, colCos)

	studyUID := generateUID()
	seriesUID := generateUID()
	now := time.Now()

	for z := int64(0); z < nz; z++ {
		pixels := make([][]int, 0, nx*ny)
		for y := int64(0); y < ny; y++ {
			for x := int64(0); x < nx; x++ {
				pixels = append(pixels, []int{int(int16(nii.GetAt(x, y, z, 0)))})
			}
		}

		ipp := [3]float64{
			origin[0] + float64(z)*spacing[2]*normal[0],
			origin[1] + float64(z)*spacing[2]*normal[1],
			origin[2] + float64(z)*spacing[2]*normal[2],
		}

		ds, err := sliceDataset(sliceParams{
			rows: int(ny), cols: int(nx),
			pixels:    pixels,
			spacing:   spacing,
			rowCos:    rowCos,
			colCos:    colCos,
			ipp:       ipp,
			studyUID:  studyUID,
			seriesUID: seriesUID,
			instance:  int(z) + 1,
			now:       now,
		})
		if err != nil {
			return fmt.Errorf("series for %s: slice %d: %w", niftiPath, z, err)
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("slice_%04d.dcm", z))
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		err = dicom.Write(f, ds, dicom.SkipVRVerification())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	return nil
}

type sliceParams struct {
	rows, cols     int
	pixels         [][]int
	spacing        [3]float64
	rowCos, colCos [3]float64
	ipp            [3]float64
	studyUID       string
	seriesUID      string
	instance       int
	now            time.Time
}

func sliceDataset(p sliceParams) (dicom.Dataset, error) {
	sopUID := generateUID()

	pixelData := dicom.PixelDataInfo{
		IsEncapsulated: false,
		Frames: []*frame.Frame{{
			Encapsulated: false,
			NativeData: frame.NativeFrame{
				BitsPerSample: 16,
				Rows:          p.rows,
				Cols:          p.cols,
				Data:          p.pixels,
			},
		}},
	}

	var elements []*dicom.Element
	add := func(t tag.Tag, value interface{}) error {
		el, err := dicom.NewElement(t, value)
		if err != nil {
			return fmt.Errorf("element %v: %w", t, err)
		}
		elements = append(elements, el)
		return nil
	}

	orientation := []string{
		ds(p.rowCos[0]), ds(p.rowCos[1]), ds(p.rowCos[2]),
		ds(p.colCos[0]), ds(p.colCos[1]), ds(p.colCos[2]),
	}

	fields := []struct {
		tag   tag.Tag
		value interface{}
	}{
		{tag.MediaStorageSOPClassUID, []string{ctImageStorage}},
		{tag.MediaStorageSOPInstanceUID, []string{sopUID}},
		{tag.TransferSyntaxUID, []string{explicitVRLittleEndian}},
		{tag.ImplementationClassUID, []string{generateUID()}},
		{tag.PatientName, []string{"Test^Patient"}},
		{tag.PatientID, []string{"123456"}},
		{tag.StudyInstanceUID, []string{p.studyUID}},
		{tag.SeriesInstanceUID, []string{p.seriesUID}},
		{tag.SOPInstanceUID, []string{sopUID}},
		{tag.SOPClassUID, []string{ctImageStorage}},
		{tag.Modality, []string{"CT"}},
		{tag.StudyDate, []string{p.now.Format("20060102")}},
		{tag.StudyTime, []string{p.now.Format("150405")}},
		{tag.SeriesNumber, []string{"1"}},
		{tag.InstanceNumber, []string{strconv.Itoa(p.instance)}},
		{tag.Rows, []int{p.rows}},
		{tag.Columns, []int{p.cols}},
		// PixelSpacing is row spacing then column spacing: (y, x).
		{tag.PixelSpacing, []string{ds(p.spacing[1]), ds(p.spacing[0])}},
		{tag.SliceThickness, []string{ds(p.spacing[2])}},
		{tag.ImagePositionPatient, []string{ds(p.ipp[0]), ds(p.ipp[1]), ds(p.ipp[2])}},
		{tag.ImageOrientationPatient, orientation},
		{tag.SliceLocation, []string{ds(p.ipp[2])}},
		{tag.SamplesPerPixel, []int{1}},
		{tag.PhotometricInterpretation, []string{"MONOCHROME2"}},
		{tag.BitsAllocated, []int{16}},
		{tag.BitsStored, []int{16}},
		{tag.HighBit, []int{15}},
		{tag.PixelRepresentation, []int{1}},
		{tag.RescaleIntercept, []string{"0"}},
		{tag.RescaleSlope, []string{"1"}},
		{tag.PixelData, pixelData},
	}
	for _, f := range fields {
		if err := add(f.tag, f.value); err != nil {
			return dicom.Dataset{}, err
		}
	}
	return dicom.Dataset{Elements: elements}, nil
}

// ds formats a decimal-string value the way DICOM expects.
func ds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// generateUID builds a UID in the 2.25 (UUID-derived) root.
func generateUID() string {
	u := uuid.New()
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}

// --- shared nifti helpers ---

func loadNifti(path string) (*nifti.Nii, error) {
	rd, err := gonii.NewNiiReader(gonii.WithReadImageFile(path), gonii.WithReadRetainHeader(true))
	if err != nil {
		return nil, fmt.Errorf("open nifti %s: %w", path, err)
	}
	if err := rd.Parse(); err != nil {
		return nil, fmt.Errorf("parse nifti %s: %w", path, err)
	}
	return rd.GetNiiData(), nil
}

func niiDims(nii *nifti.Nii) (nx, ny, nz int64) {
	shape := nii.GetImgShape()
	return shape[0], shape[1], shape[2]
}

// spatialFromAffine decomposes the affine into voxel spacing, row/column
// direction cosines and the world origin.
func spatialFromAffine(aff [4][4]float64) (spacing [3]float64, rowCos, colCos, origin [3]float64) {
	var cols [3][3]float64
	for c := 0; c < 3; c++ {
		n := 0.0
		for r := 0; r < 3; r++ {
			cols[c][r] = aff[r][c]
			n += aff[r][c] * aff[r][c]
		}
		spacing[c] = math.Sqrt(n)
		if spacing[c] > 0 {
			for r := 0; r < 3; r++ {
				cols[c][r] /= spacing[c]
			}
		}
	}
	rowCos = cols[0]
	colCos = cols[1]
	origin = [3]float64{aff[0][3], aff[1][3], aff[2][3]}
	return spacing, rowCos, colCos, origin
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
