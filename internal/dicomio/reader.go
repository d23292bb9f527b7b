package dicomio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/kanadm12/Spartis-App/internal/mesh"
	"github.com/kanadm12/Spartis-App/internal/models"
)

// SeriesLoader reloads a DICOM slice stack as a single volume grid.
type SeriesLoader struct{}

// LoadSeries reads every .dcm file in dir in filename order and assembles
// the volume. Filename order and instance order agree because the writer
// names slices slice_NNNN.dcm.
func (SeriesLoader) LoadSeries(dir string) (*mesh.Grid, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.dcm"))
	if err != nil {
		return nil, fmt.Errorf("scan series dir %s: %w", dir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("series dir %s is empty: %w", dir, models.ErrVolumeLoad)
	}

	var grid *mesh.Grid
	for z, path := range paths {
		ds, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		rows, err := intValue(ds, tag.Rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cols, err := intValue(ds, tag.Columns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if rows == 0 || cols == 0 {
			return nil, fmt.Errorf("%s: zero-dimension slice: %w", path, models.ErrVolumeLoad)
		}

		if grid == nil {
			spacing, err := sliceSpacing(ds)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			origin, err := dsValues(ds, tag.ImagePositionPatient, 3)
			if err != nil {
				// Position metadata is optional for the grid itself.
				origin = []float64{0, 0, 0}
			}
			grid = &mesh.Grid{
				Data:    make([]float64, cols*rows*len(paths)),
				Nx:      cols,
				Ny:      rows,
				Nz:      len(paths),
				Spacing: spacing,
				Origin:  [3]float64{origin[0], origin[1], origin[2]},
			}
		} else if cols != grid.Nx || rows != grid.Ny {
			return nil, fmt.Errorf("%s: slice size %dx%d does not match series %dx%d: %w",
				path, cols, rows, grid.Nx, grid.Ny, models.ErrVolumeLoad)
		}

		pixels, err := slicePixels(ds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(pixels) != rows*cols {
			return nil, fmt.Errorf("%s: pixel count %d does not match %dx%d: %w",
				path, len(pixels), rows, cols, models.ErrVolumeLoad)
		}
		base := z * grid.Nx * grid.Ny
		for i, v := range pixels {
			grid.Data[base+i] = v
		}
	}
	return grid, nil
}

func parseFile(path string) (dicom.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := dicom.Parse(f, info.Size(), nil)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// sliceSpacing converts DICOM (row, col) PixelSpacing plus SliceThickness
// into (x, y, z) voxel spacing.
func sliceSpacing(ds dicom.Dataset) ([3]float64, error) {
	ps, err := dsValues(ds, tag.PixelSpacing, 2)
	if err != nil {
		return [3]float64{1, 1, 1}, nil
	}
	thickness := 1.0
	if t, err := dsValues(ds, tag.SliceThickness, 1); err == nil {
		thickness = t[0]
	}
	return [3]float64{ps[1], ps[0], thickness}, nil
}

func slicePixels(ds dicom.Dataset) ([]float64, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("missing pixel data: %w", err)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected pixel data value type")
	}
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data has no frames")
	}
	native := info.Frames[0].NativeData
	out := make([]float64, len(native.Data))
	for i, samples := range native.Data {
		if len(samples) == 0 {
			continue
		}
		// Stored as signed 16-bit (PixelRepresentation=1).
		out[i] = float64(int16(samples[0]))
	}
	return out, nil
}

func intValue(ds dicom.Dataset, t tag.Tag) (int, error) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, fmt.Errorf("missing tag %v: %w", t, err)
	}
	ints, ok := el.Value.GetValue().([]int)
	if !ok || len(ints) == 0 {
		return 0, fmt.Errorf("tag %v is not an integer value", t)
	}
	return ints[0], nil
}

// dsValues reads a decimal-string tag into floats.
func dsValues(ds dicom.Dataset, t tag.Tag, want int) ([]float64, error) {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil, fmt.Errorf("missing tag %v: %w", t, err)
	}
	strs, ok := el.Value.GetValue().([]string)
	if !ok || len(strs) < want {
		return nil, fmt.Errorf("tag %v has %d values, want %d", t, len(strs), want)
	}
	out := make([]float64, want)
	for i := 0; i < want; i++ {
		v, err := strconv.ParseFloat(strs[i], 64)
		if err != nil {
			return nil, fmt.Errorf("tag %v value %q: %w", t, strs[i], err)
		}
		out[i] = v
	}
	return out, nil
}
