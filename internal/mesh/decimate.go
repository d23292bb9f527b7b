package mesh

import (
	"sort"
)

// decimate performs a light, topology-preserving reduction by collapsing
// the shortest interior edges until targetReduction of the faces is
// removed. The cap is deliberately small (10% in the smoothing chain) so
// the surface keeps its shape and only redundant detail goes away.
func decimate(m *PolyData, targetReduction float64) {
	if targetReduction <= 0 || len(m.Faces) == 0 {
		return
	}
	budget := int(float64(len(m.Faces)) * targetReduction)
	if budget < 2 {
		return
	}

	type edge struct {
		a, b   int
		length float64
	}
	edgeUse := make(map[[2]int]int, len(m.Faces)*3/2)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			edgeUse[[2]int{a, b}]++
		}
	}
	edges := make([]edge, 0, len(edgeUse))
	for key, uses := range edgeUse {
		// Interior manifold edges only; collapsing a boundary or
		// non-manifold edge can change topology.
		if uses != 2 {
			continue
		}
		edges = append(edges, edge{key[0], key[1], m.Points[key[1]].Sub(m.Points[key[0]]).Length()})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].length < edges[j].length })

	// Union-find over collapsed vertices.
	parent := make([]int, len(m.Points))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(v int) int {
		if parent[v] != v {
			parent[v] = find(parent[v])
		}
		return parent[v]
	}

	touched := make(map[int]bool, budget*2)
	removed := 0
	for _, e := range edges {
		if removed >= budget {
			break
		}
		a, b := find(e.a), find(e.b)
		if a == b || touched[a] || touched[b] {
			continue
		}
		// Merge b into a at the edge midpoint. Each collapse of an
		// interior edge removes its two incident triangles.
		m.Points[a] = m.Points[a].Add(m.Points[b]).Scale(0.5)
		parent[b] = a
		touched[a], touched[b] = true, true
		removed += 2
	}
	if removed == 0 {
		return
	}

	// Rewrite faces through the union-find and drop collapsed ones, then
	// compact the point array.
	remap := make([]int, len(m.Points))
	for i := range remap {
		remap[i] = -1
	}
	points := make([]Vec3, 0, len(m.Points))
	faces := m.Faces[:0]
	for _, f := range m.Faces {
		v := [3]int{find(f[0]), find(f[1]), find(f[2])}
		if v[0] == v[1] || v[1] == v[2] || v[0] == v[2] {
			continue
		}
		for i, p := range v {
			if remap[p] == -1 {
				remap[p] = len(points)
				points = append(points, m.Points[p])
			}
			v[i] = remap[p]
		}
		faces = append(faces, v)
	}
	m.Points = points
	m.Faces = faces
	m.PointNormals = nil
	m.CellNormals = nil
}
