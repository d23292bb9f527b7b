package mesh

import (
	"fmt"
	"math"

	"github.com/fogleman/mc"

	"github.com/kanadm12/Spartis-App/internal/models"
)

// MarchingCubesSurfacer extracts an isosurface from a grid at a fixed
// scalar threshold, delegating the cube traversal to fogleman/mc.
type MarchingCubesSurfacer struct{}

// Extract runs marching cubes and welds the triangle soup into indexed
// PolyData in world coordinates (voxel index scaled by spacing, offset by
// origin). Returns models.ErrEmptyMesh when the threshold produces no
// surface elements, commonly a threshold mismatched to the data's value
// range: binary segmentation masks need ~1, raw CT Hounsfield data ~250.
func (MarchingCubesSurfacer) Extract(g *Grid, threshold float64) (*PolyData, error) {
	if g == nil || g.Nx == 0 || g.Ny == 0 || g.Nz == 0 {
		return nil, fmt.Errorf("surface extraction: %w", models.ErrVolumeLoad)
	}

	triangles := mc.MarchingCubesGrid(g.Nx, g.Ny, g.Nz, g.Data, threshold)
	if len(triangles) == 0 {
		return nil, models.ErrEmptyMesh
	}

	m := &PolyData{}
	index := make(map[[3]int64]int, len(triangles))
	addPoint := func(p mc.Vector) int {
		world := Vec3{
			X: g.Origin[0] + p.X*g.Spacing[0],
			Y: g.Origin[1] + p.Y*g.Spacing[1],
			Z: g.Origin[2] + p.Z*g.Spacing[2],
		}
		// Weld coincident soup vertices on a fine lattice so the smoothing
		// passes see shared points instead of disconnected triangles.
		key := [3]int64{quantize(world.X), quantize(world.Y), quantize(world.Z)}
		if id, ok := index[key]; ok {
			return id
		}
		id := len(m.Points)
		index[key] = id
		m.Points = append(m.Points, world)
		return id
	}

	for _, t := range triangles {
		a := addPoint(t.V1)
		b := addPoint(t.V2)
		c := addPoint(t.V3)
		if a == b || b == c || a == c {
			continue // degenerate after welding
		}
		m.Faces = append(m.Faces, [3]int{a, b, c})
	}
	if len(m.Faces) == 0 {
		return nil, models.ErrEmptyMesh
	}

	ComputeNormals(m)
	return m, nil
}

func quantize(v float64) int64 {
	return int64(math.Round(v * 1e6))
}
