package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanadm12/Spartis-App/internal/mesh"
	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/pipeline"
)

type fakeVolumes struct {
	canonical     bool
	fixCalled     bool
	preprocessErr error
}

func (f *fakeVolumes) Preprocess(in, out string) error       { return f.preprocessErr }
func (f *fakeVolumes) IsCanonical(path string) (bool, error) { return f.canonical, nil }
func (f *fakeVolumes) FixOrientation(in, out string) error {
	f.fixCalled = true
	return nil
}

type fakeWriter struct{ err error }

func (f *fakeWriter) WriteSeries(niftiPath, outDir string) error { return f.err }

type fakeLoader struct {
	grid *mesh.Grid
	err  error
}

func (f *fakeLoader) LoadSeries(dir string) (*mesh.Grid, error) { return f.grid, f.err }

type fakeSurfacer struct {
	m   *mesh.PolyData
	err error
}

func (f *fakeSurfacer) Extract(g *mesh.Grid, threshold float64) (*mesh.PolyData, error) {
	return f.m, f.err
}

type fakeSmoother struct{}

func (fakeSmoother) Params(m *mesh.PolyData) mesh.SmoothingParams {
	return mesh.SmoothingParams{Iterations: 10, FeatureAngle: 30, RelaxationFactor: 0.1}
}
func (fakeSmoother) Smooth(m *mesh.PolyData, p mesh.SmoothingParams) {}

type fakeMeshWriter struct{ path string }

func (f *fakeMeshWriter) WriteSTL(m *mesh.PolyData, path string) error {
	f.path = path
	return nil
}

type recordingSink struct {
	steps    []string
	percents []int
}

func (s *recordingSink) Report(step string, percent int) {
	s.steps = append(s.steps, step)
	s.percents = append(s.percents, percent)
}

func workingDeps(vol *fakeVolumes) pipeline.Deps {
	return pipeline.Deps{
		Volumes:    vol,
		Writer:     &fakeWriter{},
		Loader:     &fakeLoader{grid: &mesh.Grid{Nx: 2, Ny: 2, Nz: 2, Data: make([]float64, 8)}},
		Surfacer:   &fakeSurfacer{m: &mesh.PolyData{}},
		Smoother:   fakeSmoother{},
		MeshWriter: &fakeMeshWriter{},
	}
}

func runInput(t *testing.T) pipeline.RunInput {
	t.Helper()
	return pipeline.RunInput{
		InputPath: filepath.Join(t.TempDir(), "in.nii.gz"),
		OutputDir: t.TempDir(),
		JobID:     "job-1",
		Threshold: 1,
	}
}

func TestRunReportsFixedSchedule(t *testing.T) {
	vol := &fakeVolumes{canonical: false}
	deps := workingDeps(vol)
	sink := &recordingSink{}

	in := runInput(t)
	stlPath, err := pipeline.NewRunner(deps).Run(context.Background(), in, sink)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 75, 90}, sink.percents)
	assert.Equal(t, models.StepFixOrient, sink.steps[2])
	assert.True(t, vol.fixCalled)
	assert.Equal(t, filepath.Join(in.OutputDir, "job-1_mesh.stl"), stlPath)
	assert.Equal(t, stlPath, deps.MeshWriter.(*fakeMeshWriter).path)
}

func TestRunSkipsOrientationFixWhenCanonical(t *testing.T) {
	vol := &fakeVolumes{canonical: true}
	sink := &recordingSink{}

	_, err := pipeline.NewRunner(workingDeps(vol)).Run(context.Background(), runInput(t), sink)
	require.NoError(t, err)

	// The branch not taken still advances 20 -> 30, exactly once.
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 75, 90}, sink.percents)
	assert.Equal(t, models.StepOrientOK, sink.steps[2])
	assert.False(t, vol.fixCalled)
}

func TestRunStopsOnEmptyMesh(t *testing.T) {
	deps := workingDeps(&fakeVolumes{canonical: true})
	deps.Surfacer = &fakeSurfacer{err: models.ErrEmptyMesh}
	sink := &recordingSink{}

	_, err := pipeline.NewRunner(deps).Run(context.Background(), runInput(t), sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmptyMesh)

	// No stage after surface extraction reports progress.
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, sink.percents)
}

func TestRunStopsOnVolumeLoadFailure(t *testing.T) {
	deps := workingDeps(&fakeVolumes{canonical: true})
	deps.Loader = &fakeLoader{err: models.ErrVolumeLoad}
	sink := &recordingSink{}

	_, err := pipeline.NewRunner(deps).Run(context.Background(), runInput(t), sink)
	assert.ErrorIs(t, err, models.ErrVolumeLoad)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, sink.percents)
}

func TestRunStopsOnInsufficientSlices(t *testing.T) {
	deps := workingDeps(&fakeVolumes{canonical: true})
	deps.Writer = &fakeWriter{err: models.ErrInsufficientSlices}
	sink := &recordingSink{}

	_, err := pipeline.NewRunner(deps).Run(context.Background(), runInput(t), sink)
	assert.ErrorIs(t, err, models.ErrInsufficientSlices)
	assert.Equal(t, []int{10, 20, 30, 40}, sink.percents)
}

func TestRunWithNilSink(t *testing.T) {
	_, err := pipeline.NewRunner(workingDeps(&fakeVolumes{canonical: true})).
		Run(context.Background(), runInput(t), nil)
	assert.NoError(t, err)
}
