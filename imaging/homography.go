package imaging

import (
	"errors"
	"math"
)

// Homography is a 3x3 projective transform in row-major order, with the
// bottom-right element fixed to 1.
type Homography [9]float64

// Pointf is a coordinate pair for sub-pixel geometry.
type Pointf struct {
	X, Y float64
}

// Apply maps a point through the transform.
func (h Homography) Apply(x, y float64) (float64, float64) {
	d := h[6]*x + h[7]*y + h[8]
	return (h[0]*x + h[1]*y + h[2]) / d, (h[3]*x + h[4]*y + h[5]) / d
}

// ErrDegenerateCorners reports a 4-point correspondence with no projective
// solution, which happens when corners are collinear or coincident.
var ErrDegenerateCorners = errors.New("degenerate corner correspondence")

// SolveHomography computes the transform taking each from[i] to to[i].
// The 8 unknowns are solved by Gaussian elimination with partial pivoting.
func SolveHomography(from, to [4]Pointf) (Homography, error) {
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i].X, from[i].Y
		u, v := to[i].X, to[i].Y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		m[col], m[pivot] = m[pivot], m[col]

		if math.Abs(m[col][col]) < 1e-9 {
			return Homography{}, ErrDegenerateCorners
		}

		inv := 1 / m[col][col]
		for k := col; k < 9; k++ {
			m[col][k] *= inv
		}
		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := m[row][col]
			if factor == 0 {
				continue
			}
			for k := col; k < 9; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = m[i][8]
	}
	h[8] = 1
	return h, nil
}
