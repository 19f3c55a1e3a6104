package imaging

import (
	"fmt"
	"image"
	"math"

	pigo "github.com/esimov/pigo/core"
)

// FaceClassifier wraps a pigo cascade built directly from the classifier
// bytes; no staging through temporary files.
type FaceClassifier struct {
	classifier *pigo.Pigo
}

// NewFaceClassifier unpacks a binary cascade.
func NewFaceClassifier(cascade []byte) (*FaceClassifier, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return &FaceClassifier{classifier: classifier}, nil
}

// minDetectionQuality drops low-confidence cascade hits.
const minDetectionQuality = 5.0

// Detect runs the cascade over a grayscale image and returns the clustered
// candidate rectangles.
func (f *FaceClassifier) Detect(gray *image.Gray, minSize, maxSize int) []image.Rectangle {
	bounds := gray.Bounds()
	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   bounds.Dy(),
			Cols:   bounds.Dx(),
			Dim:    gray.Stride,
		},
	}

	detections := f.classifier.RunCascade(params, 0)
	detections = f.classifier.ClusterDetections(detections, 0.2)

	var rects []image.Rectangle
	for _, det := range detections {
		if det.Q < minDetectionQuality {
			continue
		}
		half := det.Scale / 2
		rects = append(rects, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half))
	}
	return rects
}

// photoRegion is the normalized location of the portrait on a Romanian ID
// card: left 8-35% of the width, top 18-73% of the height.
var photoRegion = struct{ x0, y0, x1, y1 float64 }{0.08, 0.18, 0.35, 0.73}

// FaceExtractor locates the document portrait within a rectified card image
// and returns an enhanced crop of it.
type FaceExtractor struct {
	backend Backend
	minFace int
	maxFace int
}

func NewFaceExtractor(backend Backend) *FaceExtractor {
	return &FaceExtractor{backend: backend, minFace: 40, maxFace: 640}
}

// Extract returns the enhanced portrait crop, or nil when no candidate face
// is found. Absence of a face is a normal outcome, not an error.
func (e *FaceExtractor) Extract(rectified image.Image) *image.Gray {
	if rectified == nil || rectified.Bounds().Empty() {
		return nil
	}

	bounds := rectified.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	region := image.Rect(
		int(float64(w)*photoRegion.x0),
		int(float64(h)*photoRegion.y0),
		int(float64(w)*photoRegion.x1),
		int(float64(h)*photoRegion.y1),
	)

	gray := e.backend.Grayscale(rectified)

	// Detection is restricted to the expected photo location; scanning the
	// whole card costs more and picks up ghost images and holograms.
	searchArea := EqualizeHist(CropGray(gray, region))
	candidates := e.backend.DetectObjects(searchArea, e.minFace, e.maxFace)
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	bestScore := math.Inf(-1)
	for _, cand := range candidates {
		// Back to card coordinates before scoring.
		face := cand.Add(region.Min)
		if score := scoreCandidate(face, w, region); score > bestScore {
			bestScore = score
			best = face
		}
	}

	// Asymmetric padding: ID photos leave more room above the head than
	// below the chin.
	padX := int(float64(best.Dx()) * 0.2)
	padTop := int(float64(best.Dy()) * 0.4)
	padBottom := int(float64(best.Dy()) * 0.2)
	padded := image.Rect(best.Min.X-padX, best.Min.Y-padTop, best.Max.X+padX, best.Max.Y+padBottom)

	crop := CropGray(gray, padded)
	return GaussianBlur3(EqualizeHist(crop))
}

// scoreCandidate weighs how face-photo-like a candidate rectangle is:
// 70% proximity of its center to the expected region's center, 30%
// similarity of its area to the expected region's area.
func scoreCandidate(face image.Rectangle, imageWidth int, expected image.Rectangle) float64 {
	faceCX := float64(face.Min.X+face.Max.X) / 2
	faceCY := float64(face.Min.Y+face.Max.Y) / 2
	expCX := float64(expected.Min.X+expected.Max.X) / 2
	expCY := float64(expected.Min.Y+expected.Max.Y) / 2

	distScore := 1 - math.Hypot(faceCX-expCX, faceCY-expCY)/(float64(imageWidth)*0.5)

	faceArea := float64(face.Dx() * face.Dy())
	expArea := float64(expected.Dx() * expected.Dy())
	areaScore := 1 - math.Abs(faceArea-expArea)/expArea

	return 0.7*distScore + 0.3*areaScore
}
