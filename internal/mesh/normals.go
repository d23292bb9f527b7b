package mesh

// ComputeNormals populates cell normals (triangle cross products) and point
// normals (area-weighted average of incident cell normals, normalized).
func ComputeNormals(m *PolyData) {
	m.CellNormals = make([]Vec3, len(m.Faces))
	m.PointNormals = make([]Vec3, len(m.Points))

	for i, f := range m.Faces {
		a, b, c := m.Points[f[0]], m.Points[f[1]], m.Points[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		m.CellNormals[i] = n.Normalize()
		// Accumulate the unnormalized cross product so larger triangles
		// weigh more in the point normal.
		for _, p := range f {
			m.PointNormals[p] = m.PointNormals[p].Add(n)
		}
	}
	for i := range m.PointNormals {
		m.PointNormals[i] = m.PointNormals[i].Normalize()
	}
}
