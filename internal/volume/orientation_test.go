package volume

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestOrthonormalStripsScale(t *testing.T) {
	// A pure scaling affine block: the nearest rotation is the identity.
	scaled := [3][3]float64{
		{0.5, 0, 0},
		{0, 0.5, 0},
		{0, 0, 2.0},
	}

	r, err := NearestOrthonormal(scaled)
	require.NoError(t, err)

	want := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], r[i][j], 1e-9)
		}
	}
}

func TestNearestOrthonormalIsOrthonormal(t *testing.T) {
	// Rotation about z by 30 degrees with anisotropic voxel scaling mixed in.
	c, s := math.Cos(math.Pi/6), math.Sin(math.Pi/6)
	a := [3][3]float64{
		{0.7 * c, -1.2 * s, 0},
		{0.7 * s, 1.2 * c, 0},
		{0, 0, 3.5},
	}

	r, err := NearestOrthonormal(a)
	require.NoError(t, err)

	// Columns have unit length and are mutually perpendicular.
	for i := 0; i < 3; i++ {
		var norm float64
		for row := 0; row < 3; row++ {
			norm += r[row][i] * r[row][i]
		}
		assert.InDelta(t, 1.0, norm, 1e-9, "column %d length", i)
		for j := i + 1; j < 3; j++ {
			var dot float64
			for row := 0; row < 3; row++ {
				dot += r[row][i] * r[row][j]
			}
			assert.InDelta(t, 0.0, dot, 1e-9, "columns %d,%d dot", i, j)
		}
	}

	// The rotational part survives: column 0 still points 30 degrees off x.
	assert.InDelta(t, c, r[0][0], 1e-9)
	assert.InDelta(t, s, r[1][0], 1e-9)
}

func TestAxisCodes(t *testing.T) {
	tests := []struct {
		name string
		aff  [4][4]float64
		want [3]byte
	}{
		{
			name: "canonical identity",
			aff: [4][4]float64{
				{1, 0, 0, 0},
				{0, 1, 0, 0},
				{0, 0, 1, 0},
				{0, 0, 0, 1},
			},
			want: [3]byte{'R', 'A', 'S'},
		},
		{
			name: "scaled canonical stays canonical",
			aff: [4][4]float64{
				{0.8, 0, 0, -90},
				{0, 0.8, 0, -110},
				{0, 0, 2.5, -60},
				{0, 0, 0, 1},
			},
			want: [3]byte{'R', 'A', 'S'},
		},
		{
			name: "flipped first axis",
			aff: [4][4]float64{
				{-1, 0, 0, 0},
				{0, 1, 0, 0},
				{0, 0, 1, 0},
				{0, 0, 0, 1},
			},
			want: [3]byte{'L', 'A', 'S'},
		},
		{
			name: "axes permuted",
			aff: [4][4]float64{
				{0, 0, 1, 0},
				{1, 0, 0, 0},
				{0, -1, 0, 0},
				{0, 0, 0, 1},
			},
			want: [3]byte{'A', 'I', 'R'},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, axisCodes(tt.aff))
		})
	}
}
