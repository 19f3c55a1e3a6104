// Package imaging contains the frame-analysis and document-image pipeline:
// alignment checks for the live capture loop, perspective rectification of
// captured documents and extraction of the portrait region.
//
// All pixel operations go through the Backend capability interface so the
// pipeline is not bound to one imaging implementation; StdBackend is the
// pure-Go default.
package imaging

import (
	"image"
)

// Contour is a connected set of edge pixels, in image coordinates.
type Contour []image.Point

// Backend is the set of imaging capabilities the pipeline needs. Every
// operation is a pure function of its inputs; implementations own whatever
// native resources they need internally.
type Backend interface {
	// Grayscale converts any image to 8-bit grayscale.
	Grayscale(img image.Image) *image.Gray

	// DetectEdges produces a binary edge map: pixels whose gradient
	// magnitude reaches threshold are 255, all others 0.
	DetectEdges(gray *image.Gray, threshold uint8) *image.Gray

	// FindContours extracts the external connected edge components.
	FindContours(edges *image.Gray) []Contour

	// BoundingRect fits the axis-aligned bounding rectangle of a contour.
	BoundingRect(contour Contour) image.Rectangle

	// WarpPerspective resamples src into a width x height destination,
	// where dstToSrc maps destination coordinates to source coordinates.
	WarpPerspective(src image.Image, dstToSrc Homography, width, height int) *image.RGBA

	// DetectObjects runs the configured object (face) classifier over a
	// grayscale image and returns candidate rectangles. An unconfigured
	// classifier yields no candidates.
	DetectObjects(gray *image.Gray, minSize, maxSize int) []image.Rectangle
}
