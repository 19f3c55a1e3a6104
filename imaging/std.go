package imaging

import (
	"image"
	"image/draw"
	"math"
)

// StdBackend implements Backend on the standard library image types.
// The zero value works for everything except DetectObjects, which needs a
// face classifier.
type StdBackend struct {
	Faces *FaceClassifier
}

// NewStdBackend returns a backend using the given classifier for
// DetectObjects. classifier may be nil.
func NewStdBackend(classifier *FaceClassifier) *StdBackend {
	return &StdBackend{Faces: classifier}
}

func (b *StdBackend) Grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// DetectEdges thresholds the Sobel gradient magnitude. The one-pixel image
// border carries no gradient and stays black.
func (b *StdBackend) DetectEdges(gray *image.Gray, threshold uint8) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	edges := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if math.Hypot(gx, gy) >= float64(threshold) {
				edges.SetGray(x, y, gray8(255))
			}
		}
	}
	return edges
}

// minContourPoints filters out speckle components that cannot be a document
// outline.
const minContourPoints = 8

// FindContours labels 8-connected components of edge pixels. Each component
// is returned as the set of its pixels.
func (b *StdBackend) FindContours(edges *image.Gray) []Contour {
	bounds := edges.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	visited := make([]bool, w*h)

	isEdge := func(x, y int) bool {
		return edges.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > 0
	}

	var contours []Contour
	var stack []image.Point

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !isEdge(x, y) {
				continue
			}

			var contour Contour
			visited[y*w+x] = true
			stack = append(stack[:0], image.Pt(x, y))
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				contour = append(contour, p)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if visited[ny*w+nx] || !isEdge(nx, ny) {
							continue
						}
						visited[ny*w+nx] = true
						stack = append(stack, image.Pt(nx, ny))
					}
				}
			}

			if len(contour) >= minContourPoints {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

func (b *StdBackend) BoundingRect(contour Contour) image.Rectangle {
	if len(contour) == 0 {
		return image.Rectangle{}
	}
	minX, minY := contour[0].X, contour[0].Y
	maxX, maxY := minX, minY
	for _, p := range contour[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// WarpPerspective inverse-maps every destination pixel through dstToSrc and
// samples the source bilinearly. Samples outside the source stay black.
func (b *StdBackend) WarpPerspective(src image.Image, dstToSrc Homography, width, height int) *image.RGBA {
	srcRGBA := toRGBA(src)
	srcBounds := srcRGBA.Bounds()
	sw, sh := srcBounds.Dx(), srcBounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := dstToSrc.Apply(float64(x), float64(y))
			if sx < 0 || sy < 0 || sx > float64(sw-1) || sy > float64(sh-1) {
				continue
			}
			x0, y0 := int(sx), int(sy)
			x1, y1 := min(x0+1, sw-1), min(y0+1, sh-1)
			fx, fy := sx-float64(x0), sy-float64(y0)

			di := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				p00 := float64(srcRGBA.Pix[srcRGBA.PixOffset(x0, y0)+c])
				p10 := float64(srcRGBA.Pix[srcRGBA.PixOffset(x1, y0)+c])
				p01 := float64(srcRGBA.Pix[srcRGBA.PixOffset(x0, y1)+c])
				p11 := float64(srcRGBA.Pix[srcRGBA.PixOffset(x1, y1)+c])
				top := p00 + (p10-p00)*fx
				bottom := p01 + (p11-p01)*fx
				dst.Pix[di+c] = uint8(math.Round(top + (bottom-top)*fy))
			}
		}
	}
	return dst
}

func (b *StdBackend) DetectObjects(gray *image.Gray, minSize, maxSize int) []image.Rectangle {
	if b.Faces == nil {
		return nil
	}
	return b.Faces.Detect(gray, minSize, maxSize)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == image.Pt(0, 0) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
