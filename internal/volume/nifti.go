package volume

import (
	"fmt"

	"github.com/okieraised/gonii"
	"github.com/okieraised/gonii/pkg/nifti"

	"github.com/kanadm12/Spartis-App/internal/models"
)

// NiftiProcessor wraps the gonii codec for the preprocessing and orientation
// stages. All methods operate file-to-file, mirroring the on-disk handoff
// between pipeline stages.
type NiftiProcessor struct{}

// Bone voxels sit above this value in the input volume; everything above it
// becomes the binary foreground label.
const boneThreshold = 0.0

// Preprocess thresholds the input volume: values above the bone threshold
// become 1, everything else is kept as-is, and the result is written with
// the original header and affine.
func (NiftiProcessor) Preprocess(inPath, outPath string) error {
	nii, err := loadNii(inPath)
	if err != nil {
		return err
	}
	nx, ny, nz := dims(nii)
	if nx == 0 || ny == 0 || nz == 0 {
		return fmt.Errorf("preprocess %s: volume has a zero dimension: %w", inPath, models.ErrVolumeLoad)
	}
	for z := int64(0); z < nz; z++ {
		for y := int64(0); y < ny; y++ {
			for x := int64(0); x < nx; x++ {
				if nii.GetAt(x, y, z, 0) > boneThreshold {
					if err := nii.SetAt(1, x, y, z, 0); err != nil {
						return fmt.Errorf("preprocess %s: write voxel: %w", inPath, err)
					}
				}
			}
		}
	}
	return saveNii(nii, outPath)
}

// IsCanonical reports whether the volume's affine already maps the image
// axes to the Right-Anterior-Superior anatomical directions.
func (NiftiProcessor) IsCanonical(path string) (bool, error) {
	nii, err := loadNii(path)
	if err != nil {
		return false, err
	}
	codes := axisCodes(affineOf(nii))
	return codes == [3]byte{'R', 'A', 'S'}, nil
}

// FixOrientation rewrites the affine's rotation block with its nearest
// orthonormal matrix (via SVD) and saves the volume unchanged otherwise.
func (NiftiProcessor) FixOrientation(inPath, outPath string) error {
	nii, err := loadNii(inPath)
	if err != nil {
		return err
	}
	aff := affineOf(nii)
	var rot [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot[i][j] = aff[i][j]
		}
	}
	ortho, err := NearestOrthonormal(rot)
	if err != nil {
		return fmt.Errorf("fix orientation %s: %w", inPath, err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			aff[i][j] = ortho[i][j]
		}
	}
	setAffine(nii, aff)
	return saveNii(nii, outPath)
}

// --- gonii plumbing ---

func loadNii(path string) (*nifti.Nii, error) {
	rd, err := gonii.NewNiiReader(gonii.WithReadImageFile(path), gonii.WithReadRetainHeader(true))
	if err != nil {
		return nil, fmt.Errorf("open nifti %s: %w", path, err)
	}
	if err := rd.Parse(); err != nil {
		return nil, fmt.Errorf("parse nifti %s: %w", path, err)
	}
	return rd.GetNiiData(), nil
}

func saveNii(nii *nifti.Nii, path string) error {
	wr, err := gonii.NewNiiWriter(path,
		gonii.WithWriteNIfTIData(nii),
		gonii.WithWriteCompression(true),
	)
	if err != nil {
		return fmt.Errorf("create nifti writer %s: %w", path, err)
	}
	if err := wr.WriteToFile(); err != nil {
		return fmt.Errorf("write nifti %s: %w", path, err)
	}
	return nil
}

func dims(nii *nifti.Nii) (nx, ny, nz int64) {
	shape := nii.GetImgShape()
	return shape[0], shape[1], shape[2]
}

func affineOf(nii *nifti.Nii) [4][4]float64 {
	return nii.GetAffine().M
}

func setAffine(nii *nifti.Nii, aff [4][4]float64) {
	m := nii.GetAffine()
	m.M = aff
	nii.SetAffine(m)
	// The writer serializes the sform rows, not the derived affine, so the
	// correction must land there to survive the round trip to disk.
	nii.StoXYZ = m
	if nii.SformCode <= 0 {
		nii.SformCode = nifti.NIFTI_XFORM_ALIGNED_ANAT
	}
}
