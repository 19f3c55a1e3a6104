package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrayscalePassthrough(t *testing.T) {
	backend := &StdBackend{}
	frame := newFrame(8, 8, 77)
	require.Same(t, frame, backend.Grayscale(frame))
}

func TestGrayscaleFromRGBA(t *testing.T) {
	backend := &StdBackend{}
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = 200, 200, 200, 255
	}

	gray := backend.Grayscale(rgba)
	require.Equal(t, 4, gray.Bounds().Dx())
	require.EqualValues(t, 200, gray.GrayAt(2, 2).Y)
}

func TestDetectEdgesStep(t *testing.T) {
	backend := &StdBackend{}

	// Vertical step at x=8: strong gradient around the boundary, none in
	// the flat halves.
	frame := newFrame(16, 16, 0)
	fillRect(frame, image.Rect(8, 0, 16, 16), 255)

	edges := backend.DetectEdges(frame, 60)
	require.NotZero(t, edges.GrayAt(7, 8).Y)
	require.NotZero(t, edges.GrayAt(8, 8).Y)
	require.Zero(t, edges.GrayAt(2, 8).Y)
	require.Zero(t, edges.GrayAt(13, 8).Y)
}

func TestDetectEdgesUniform(t *testing.T) {
	backend := &StdBackend{}
	edges := backend.DetectEdges(newFrame(16, 16, 128), 60)
	for _, v := range edges.Pix {
		require.Zero(t, v)
	}
}

func TestFindContoursSingleRectangle(t *testing.T) {
	backend := &StdBackend{}
	frame := newFrame(64, 48, 0)
	fillRect(frame, image.Rect(10, 10, 50, 35), 255)

	contours := backend.FindContours(backend.DetectEdges(frame, 60))
	require.Len(t, contours, 1)

	rect := backend.BoundingRect(contours[0])
	require.LessOrEqual(t, rect.Min.X, 10)
	require.LessOrEqual(t, rect.Min.Y, 10)
	require.GreaterOrEqual(t, rect.Max.X, 49)
	require.GreaterOrEqual(t, rect.Max.Y, 34)
}

func TestFindContoursSeparateComponents(t *testing.T) {
	backend := &StdBackend{}
	frame := newFrame(64, 64, 0)
	fillRect(frame, image.Rect(5, 5, 25, 25), 255)
	fillRect(frame, image.Rect(38, 38, 58, 58), 255)

	contours := backend.FindContours(backend.DetectEdges(frame, 60))
	require.Len(t, contours, 2)
}

func TestFindContoursDropsSpeckle(t *testing.T) {
	backend := &StdBackend{}
	edges := newFrame(32, 32, 0)
	edges.SetGray(16, 16, gray8(255))
	edges.SetGray(17, 16, gray8(255))

	require.Empty(t, backend.FindContours(edges))
}

func TestBoundingRect(t *testing.T) {
	backend := &StdBackend{}
	contour := Contour{{3, 7}, {12, 2}, {5, 9}}
	require.Equal(t, image.Rect(3, 2, 13, 10), backend.BoundingRect(contour))
	require.Equal(t, image.Rectangle{}, backend.BoundingRect(nil))
}

func TestWarpPerspectiveIdentity(t *testing.T) {
	backend := &StdBackend{}
	src := newFrame(20, 20, 0)
	fillRect(src, image.Rect(5, 5, 15, 15), 200)

	identity := Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
	dst := backend.WarpPerspective(src, identity, 20, 20)

	require.EqualValues(t, 200, dst.RGBAAt(10, 10).R)
	require.EqualValues(t, 0, dst.RGBAAt(2, 2).R)
}

func TestWarpPerspectiveOutOfBounds(t *testing.T) {
	backend := &StdBackend{}
	src := newFrame(10, 10, 255)

	// Shift far outside the source; everything should stay black.
	shifted := Homography{1, 0, 100, 0, 1, 100, 0, 0, 1}
	dst := backend.WarpPerspective(src, shifted, 10, 10)
	require.Zero(t, dst.RGBAAt(5, 5).R)
}

func TestDetectObjectsWithoutClassifier(t *testing.T) {
	backend := &StdBackend{}
	require.Nil(t, backend.DetectObjects(newFrame(32, 32, 128), 20, 200))
}
