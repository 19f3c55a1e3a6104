package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// OrderCorners arranges four corners into top-left, top-right, bottom-right,
// bottom-left order: split into the left and right pair by x, then sort each
// pair by y.
func OrderCorners(corners []image.Point) ([4]image.Point, error) {
	if len(corners) != 4 {
		return [4]image.Point{}, fmt.Errorf("need exactly 4 corners, got %d", len(corners))
	}

	pts := make([]image.Point, 4)
	copy(pts, corners)
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	left := pts[0:2]
	right := pts[2:4]
	if left[0].Y > left[1].Y {
		left[0], left[1] = left[1], left[0]
	}
	if right[0].Y > right[1].Y {
		right[0], right[1] = right[1], right[0]
	}

	return [4]image.Point{left[0], right[0], right[1], left[1]}, nil
}

// Rectifier flattens a detected document quadrilateral into an axis-aligned
// frontal view.
type Rectifier struct {
	backend Backend
}

func NewRectifier(backend Backend) *Rectifier {
	return &Rectifier{backend: backend}
}

// Rectify warps src so the given corners (in any order) become the corners
// of the output rectangle. The destination size is taken from the longest
// opposite edges. Collinear or coincident corners are rejected before the
// transform is solved.
func (r *Rectifier) Rectify(src image.Image, corners [4]image.Point) (*image.RGBA, error) {
	ordered, err := OrderCorners(corners[:])
	if err != nil {
		return nil, err
	}
	tl, tr, br, bl := ordered[0], ordered[1], ordered[2], ordered[3]

	topWidth := distance(tl, tr)
	bottomWidth := distance(bl, br)
	leftHeight := distance(tl, bl)
	rightHeight := distance(tr, br)

	width := int(math.Max(topWidth, bottomWidth))
	height := int(math.Max(leftHeight, rightHeight))
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: %dx%d destination", ErrDegenerateCorners, width, height)
	}

	dst := [4]Pointf{
		{0, 0},
		{float64(width - 1), 0},
		{float64(width - 1), float64(height - 1)},
		{0, float64(height - 1)},
	}
	srcPts := [4]Pointf{
		{float64(tl.X), float64(tl.Y)},
		{float64(tr.X), float64(tr.Y)},
		{float64(br.X), float64(br.Y)},
		{float64(bl.X), float64(bl.Y)},
	}

	// Solve destination -> source so the warp can inverse-sample.
	dstToSrc, err := SolveHomography(dst, srcPts)
	if err != nil {
		return nil, err
	}

	return r.backend.WarpPerspective(src, dstToSrc, width, height), nil
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
