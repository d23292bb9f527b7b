package mesh

import (
	"math"
)

// Grid is a volumetric scalar field on a regular grid. Data is stored
// x-fastest (index = x + y*Nx + z*Nx*Ny), matching what the slice-stack
// loader produces.
type Grid struct {
	Data       []float64
	Nx, Ny, Nz int
	Spacing    [3]float64
	Origin     [3]float64
}

func (g *Grid) At(x, y, z int) float64 {
	return g.Data[x+y*g.Nx+z*g.Nx*g.Ny]
}

func (g *Grid) Set(x, y, z int, v float64) {
	g.Data[x+y*g.Nx+z*g.Nx*g.Ny] = v
}

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(w Vec3) Vec3      { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }
func (v Vec3) Sub(w Vec3) Vec3      { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(w Vec3) float64   { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// AngleBetween returns the angle between two vectors in degrees.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// PolyData is an indexed triangle surface. Normals are populated by
// ComputeNormals and consumed by the smoothing passes and the STL writer.
type PolyData struct {
	Points       []Vec3
	Faces        [][3]int
	PointNormals []Vec3
	CellNormals  []Vec3
}

func (m *PolyData) NumberOfPoints() int { return len(m.Points) }
func (m *PolyData) NumberOfCells() int  { return len(m.Faces) }

// Edges returns the unique undirected edges of the surface.
func (m *PolyData) Edges() [][2]int {
	seen := make(map[[2]int]struct{}, len(m.Faces)*3)
	edges := make([][2]int, 0, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, key)
		}
	}
	return edges
}

// MeanEdgeLength returns the average edge length, or 1.0 for a surface with
// no edges (the heuristic fallback).
func (m *PolyData) MeanEdgeLength() float64 {
	edges := m.Edges()
	if len(edges) == 0 {
		return 1.0
	}
	var sum float64
	for _, e := range edges {
		sum += m.Points[e[1]].Sub(m.Points[e[0]]).Length()
	}
	return sum / float64(len(edges))
}
