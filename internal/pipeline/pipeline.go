package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/kanadm12/Spartis-App/internal/dicomio"
	"github.com/kanadm12/Spartis-App/internal/mesh"
	"github.com/kanadm12/Spartis-App/internal/models"
	"github.com/kanadm12/Spartis-App/internal/volume"
)

// ProgressSink receives stage progress updates from the sequencer. The
// callback runs synchronously on the worker goroutine; implementations must
// not block on it.
type ProgressSink interface {
	Report(step string, percent int)
}

// SinkFunc adapts a plain function to a ProgressSink.
type SinkFunc func(step string, percent int)

func (f SinkFunc) Report(step string, percent int) { f(step, percent) }

// NopSink drops all updates.
var NopSink ProgressSink = SinkFunc(func(string, int) {})

// --- Capability interfaces for the imaging collaborators ---

type VolumeProcessor interface {
	Preprocess(inPath, outPath string) error
	IsCanonical(path string) (bool, error)
	FixOrientation(inPath, outPath string) error
}

type SliceStackWriter interface {
	WriteSeries(niftiPath, outDir string) error
}

type SliceStackLoader interface {
	LoadSeries(dir string) (*mesh.Grid, error)
}

type Surfacer interface {
	Extract(g *mesh.Grid, threshold float64) (*mesh.PolyData, error)
}

type Smoother interface {
	Params(m *mesh.PolyData) mesh.SmoothingParams
	Smooth(m *mesh.PolyData, p mesh.SmoothingParams)
}

type MeshWriter interface {
	WriteSTL(m *mesh.PolyData, path string) error
}

// Deps bundles the stage collaborators, mirroring how worker handlers take
// their dependencies.
type Deps struct {
	Volumes    VolumeProcessor
	Writer     SliceStackWriter
	Loader     SliceStackLoader
	Surfacer   Surfacer
	Smoother   Smoother
	MeshWriter MeshWriter
}

// DefaultDeps wires the real imaging collaborators.
func DefaultDeps() Deps {
	return Deps{
		Volumes:    volume.NiftiProcessor{},
		Writer:     dicomio.SeriesWriter{},
		Loader:     dicomio.SeriesLoader{},
		Surfacer:   mesh.MarchingCubesSurfacer{},
		Smoother:   mesh.StandardSmoother{},
		MeshWriter: mesh.STLWriter{},
	}
}

// RunInput describes one pipeline invocation.
type RunInput struct {
	InputPath string
	OutputDir string
	JobID     string
	Threshold float64
}

// Runner executes the fixed stage sequence for one input volume. It is
// strictly single-threaded per run; every stage blocks until its library
// call returns. Each run reports the fixed percentage schedule through the
// sink as it enters each stage.
type Runner struct {
	deps Deps
}

func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps}
}

// Run converts one NIfTI file to a smoothed STL mesh, returning the STL
// path. Any stage error aborts the whole run; there are no retries. The
// intermediate artifacts are namespaced by job id under OutputDir.
func (r *Runner) Run(ctx context.Context, in RunInput, sink ProgressSink) (string, error) {
	if sink == nil {
		sink = NopSink
	}
	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	base := in.JobID
	processedPath := filepath.Join(in.OutputDir, base+"_processed.nii.gz")
	fixedPath := filepath.Join(in.OutputDir, base+"_fixed.nii.gz")
	dicomDir := filepath.Join(in.OutputDir, base+"_dicom")
	stlPath := filepath.Join(in.OutputDir, base+"_mesh.stl")

	sink.Report(models.StepPreprocess, models.PercentPreprocess)
	if err := r.deps.Volumes.Preprocess(in.InputPath, processedPath); err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}

	sink.Report(models.StepCheckOrient, models.PercentCheckOrient)
	canonical, err := r.deps.Volumes.IsCanonical(processedPath)
	if err != nil {
		return "", fmt.Errorf("orientation check: %w", err)
	}

	// Both branches advance to the same percentage; the fixed intermediate
	// only exists when a correction was actually needed.
	niiPath := processedPath
	if !canonical {
		sink.Report(models.StepFixOrient, models.PercentOrient)
		if err := r.deps.Volumes.FixOrientation(processedPath, fixedPath); err != nil {
			return "", fmt.Errorf("orientation fix: %w", err)
		}
		niiPath = fixedPath
	} else {
		sink.Report(models.StepOrientOK, models.PercentOrient)
	}

	sink.Report(models.StepToDicom, models.PercentToDicom)
	if err := r.deps.Writer.WriteSeries(niiPath, dicomDir); err != nil {
		return "", fmt.Errorf("slice-stack conversion: %w", err)
	}

	sink.Report(models.StepLoadDicom, models.PercentLoadDicom)
	grid, err := r.deps.Loader.LoadSeries(dicomDir)
	if err != nil {
		return "", fmt.Errorf("slice-stack load: %w", err)
	}

	sink.Report(models.StepGenMesh, models.PercentGenMesh)
	surface, err := r.deps.Surfacer.Extract(grid, in.Threshold)
	if err != nil {
		return "", fmt.Errorf("surface extraction: %w", err)
	}

	sink.Report(models.StepSmoothMesh, models.PercentSmoothMesh)
	params := r.deps.Smoother.Params(surface)
	log.Printf("Smoothing params for %s: iterations=%d featureAngle=%.1f relaxation=%.2f",
		in.JobID, params.Iterations, params.FeatureAngle, params.RelaxationFactor)
	r.deps.Smoother.Smooth(surface, params)

	sink.Report(models.StepSaveSTL, models.PercentSaveSTL)
	if err := r.deps.MeshWriter.WriteSTL(surface, stlPath); err != nil {
		return "", fmt.Errorf("save stl: %w", err)
	}

	_ = ctx // no cancellation: once started, a run completes or fails
	return stlPath, nil
}
