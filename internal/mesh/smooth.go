package mesh

import (
	"sort"
)

// SmoothingParams are the adaptively estimated smoothing inputs.
type SmoothingParams struct {
	Iterations       int
	FeatureAngle     float64
	RelaxationFactor float64
}

// Fixed pass band for the windowed-sinc pass. Kept small for finer
// smoothing.
const sincPassBand = 0.05

// StandardSmoother implements the two-pass smoothing scheme: a gentle
// Laplacian relaxation pass for bulk noise removal followed by a
// feature-preserving windowed-sinc pass that avoids shrinkage.
type StandardSmoother struct{}

// Params derives smoothing parameters from the mesh itself:
//
//	iterations = clamp(faces/1000, 10, 50)
//	featureAngle = clamp(medianNormalAngle, 20, 80), default 30 when the
//	  mesh has fewer than 2 points
//	relaxation = clamp(meanEdgeLength/10, 0.1, 0.5), mean edge length
//	  defaulting to 1.0 when there are no edges
//
// The median normal angle is the median pairwise angle between per-point
// normals taken in storage order (point i against point i-1). That is a
// normal-variation proxy for curvature, not a topological neighbourhood
// estimate; kept for compatibility with established output.
func (StandardSmoother) Params(m *PolyData) SmoothingParams {
	if m.PointNormals == nil {
		ComputeNormals(m)
	}

	angles := make([]float64, 0, m.NumberOfPoints())
	for i := 1; i < m.NumberOfPoints(); i++ {
		angles = append(angles, AngleBetween(m.PointNormals[i-1], m.PointNormals[i]))
	}
	medianAngle := 30.0
	if len(angles) > 0 {
		sort.Float64s(angles)
		medianAngle = angles[len(angles)/2]
	}

	return SmoothingParams{
		Iterations:       clampInt(m.NumberOfCells()/1000, 10, 50),
		FeatureAngle:     clamp(medianAngle, 20, 80),
		RelaxationFactor: clamp(m.MeanEdgeLength()/10, 0.1, 0.5),
	}
}

// Smooth runs the full multi-pass chain in place: triangulate, light
// decimation (10% cap, topology preserved), normals, Laplacian pass with
// half the iteration budget, windowed-sinc pass with the other half, final
// normal recomputation.
func (StandardSmoother) Smooth(m *PolyData, p SmoothingParams) {
	triangulate(m)
	decimate(m, 0.1)
	ComputeNormals(m)
	laplacianSmooth(m, p.Iterations/2, p.RelaxationFactor)
	windowedSincSmooth(m, p.Iterations/2, p.FeatureAngle)
	ComputeNormals(m)
}

// triangulate drops degenerate faces. Faces are already triangles here;
// this mirrors the defensive triangulation ahead of decimation.
func triangulate(m *PolyData) {
	faces := m.Faces[:0]
	for _, f := range m.Faces {
		if f[0] != f[1] && f[1] != f[2] && f[0] != f[2] {
			faces = append(faces, f)
		}
	}
	m.Faces = faces
}

// neighbors builds the vertex adjacency of the surface.
func neighbors(m *PolyData) [][]int {
	adj := make([][]int, len(m.Points))
	add := func(a, b int) {
		for _, n := range adj[a] {
			if n == b {
				return
			}
		}
		adj[a] = append(adj[a], b)
	}
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			add(a, b)
			add(b, a)
		}
	}
	return adj
}

// laplacianSmooth relaxes each vertex toward the centroid of its neighbours
// by the relaxation factor, once per iteration. Boundary vertices are
// smoothed as well (boundary smoothing on, feature-edge smoothing off).
func laplacianSmooth(m *PolyData, iterations int, relaxation float64) {
	if iterations <= 0 {
		return
	}
	adj := neighbors(m)
	next := make([]Vec3, len(m.Points))
	for it := 0; it < iterations; it++ {
		for i, nbrs := range adj {
			if len(nbrs) == 0 {
				next[i] = m.Points[i]
				continue
			}
			var centroid Vec3
			for _, n := range nbrs {
				centroid = centroid.Add(m.Points[n])
			}
			centroid = centroid.Scale(1 / float64(len(nbrs)))
			delta := centroid.Sub(m.Points[i]).Scale(relaxation)
			next[i] = m.Points[i].Add(delta)
		}
		copy(m.Points, next)
	}
}

// windowedSincSmooth is a Taubin lambda/mu approximation of windowed-sinc
// smoothing: alternating shrink and inflate steps tuned from the pass band,
// so low frequencies survive and the surface does not shrink. Vertices on
// feature edges (adjacent cell normals differing by more than featureAngle)
// are pinned, which is what preserves sharp anatomical ridges.
func windowedSincSmooth(m *PolyData, iterations int, featureAngle float64) {
	if iterations <= 0 {
		return
	}
	lambda := 0.33
	// From 1/lambda + 1/mu = passBand: mu is the negative unshrink step.
	mu := 1 / (sincPassBand - 1/lambda)

	fixed := featureVertices(m, featureAngle)
	adj := neighbors(m)
	next := make([]Vec3, len(m.Points))

	step := func(factor float64) {
		for i, nbrs := range adj {
			if fixed[i] || len(nbrs) == 0 {
				next[i] = m.Points[i]
				continue
			}
			var centroid Vec3
			for _, n := range nbrs {
				centroid = centroid.Add(m.Points[n])
			}
			centroid = centroid.Scale(1 / float64(len(nbrs)))
			delta := centroid.Sub(m.Points[i]).Scale(factor)
			next[i] = m.Points[i].Add(delta)
		}
		copy(m.Points, next)
	}

	for it := 0; it < iterations; it++ {
		step(lambda)
		step(mu)
	}
}

// featureVertices marks vertices incident to an edge whose two adjacent
// faces meet at more than featureAngle degrees.
func featureVertices(m *PolyData, featureAngle float64) []bool {
	if m.CellNormals == nil {
		ComputeNormals(m)
	}
	type edgeFaces struct{ faces [2]int; n int }
	edgeMap := make(map[[2]int]*edgeFaces, len(m.Faces)*3/2)
	for fi, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			ef, ok := edgeMap[key]
			if !ok {
				ef = &edgeFaces{}
				edgeMap[key] = ef
			}
			if ef.n < 2 {
				ef.faces[ef.n] = fi
			}
			ef.n++
		}
	}

	fixed := make([]bool, len(m.Points))
	for key, ef := range edgeMap {
		if ef.n != 2 {
			continue
		}
		angle := AngleBetween(m.CellNormals[ef.faces[0]], m.CellNormals[ef.faces[1]])
		if angle > featureAngle {
			fixed[key[0]] = true
			fixed[key[1]] = true
		}
	}
	return fixed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
