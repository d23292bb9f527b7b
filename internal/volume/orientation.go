package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NearestOrthonormal returns the closest rotation-with-scale-removed matrix
// to the given 3x3 block, computed as U*Vᵀ from its SVD.
func NearestOrthonormal(a [3][3]float64) ([3][3]float64, error) {
	dense := mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
	var svd mat.SVD
	if ok := svd.Factorize(dense, mat.SVDThin); !ok {
		return a, fmt.Errorf("svd factorization failed")
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r.At(i, j)
		}
	}
	return out, nil
}

// axisCodes labels each image axis with the anatomical direction its affine
// column mostly points along: R/L, A/P, S/I. Canonical order is R, A, S.
func axisCodes(aff [4][4]float64) [3]byte {
	positive := [3]byte{'R', 'A', 'S'}
	negative := [3]byte{'L', 'P', 'I'}

	var codes [3]byte
	for col := 0; col < 3; col++ {
		best := 0
		bestAbs := 0.0
		for row := 0; row < 3; row++ {
			if abs := math.Abs(aff[row][col]); abs > bestAbs {
				bestAbs = abs
				best = row
			}
		}
		if aff[best][col] >= 0 {
			codes[col] = positive[best]
		} else {
			codes[col] = negative[best]
		}
	}
	return codes
}
