package mesh

import (
	"fmt"

	"github.com/hschendel/stl"
)

// STLWriter serializes a surface to binary STL.
type STLWriter struct{}

func (STLWriter) WriteSTL(m *PolyData, path string) error {
	if m.CellNormals == nil {
		ComputeNormals(m)
	}
	solid := stl.Solid{
		Name:      "spartis",
		IsAscii:   false,
		Triangles: make([]stl.Triangle, 0, len(m.Faces)),
	}
	for i, f := range m.Faces {
		n := m.CellNormals[i]
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal: stl.Vec3{float32(n.X), float32(n.Y), float32(n.Z)},
			Vertices: [3]stl.Vec3{
				vec3ToSTL(m.Points[f[0]]),
				vec3ToSTL(m.Points[f[1]]),
				vec3ToSTL(m.Points[f[2]]),
			},
		})
	}
	if err := solid.WriteFile(path); err != nil {
		return fmt.Errorf("write stl %s: %w", path, err)
	}
	return nil
}

func vec3ToSTL(v Vec3) stl.Vec3 {
	return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}
