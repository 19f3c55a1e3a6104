package imaging

import (
	"image"
	"log/slog"
	"math"
)

// IDCardRatio is the ID-1 card aspect ratio (85.60mm / 53.98mm).
const IDCardRatio = 85.6 / 53.98

// FrameAnalysis is the per-frame result consumed by the capture controller.
// Only the latest value matters; frames are never queued.
type FrameAnalysis struct {
	Aligned    bool
	Brightness float64 // 0-100
}

// AnalyzerConfig tunes the alignment checks. Zero values take defaults.
type AnalyzerConfig struct {
	TargetRatio    float64 // expected width/height, default IDCardRatio
	RatioTolerance float64 // default 0.2
	AngleTolerance float64 // degrees, default 5
	EdgeThreshold  uint8   // gradient magnitude cutoff, default 60
}

func (c *AnalyzerConfig) applyDefaults() {
	if c.TargetRatio == 0 {
		c.TargetRatio = IDCardRatio
	}
	if c.RatioTolerance == 0 {
		c.RatioTolerance = 0.2
	}
	if c.AngleTolerance == 0 {
		c.AngleTolerance = 5
	}
	if c.EdgeThreshold == 0 {
		c.EdgeThreshold = 60
	}
}

// Analyzer checks a video frame for a well-lit, aligned document. It runs
// once per delivered frame, so everything here stays cheap.
type Analyzer struct {
	backend Backend
	cfg     AnalyzerConfig
}

func NewAnalyzer(backend Backend, cfg AnalyzerConfig) *Analyzer {
	cfg.applyDefaults()
	return &Analyzer{backend: backend, cfg: cfg}
}

// AnalyzeFrame computes brightness and alignment for one frame. It never
// propagates a failure into the capture loop: any internal error yields
// {Aligned: false, Brightness: 0}.
func (a *Analyzer) AnalyzeFrame(frame image.Image) (analysis FrameAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("frame analysis failed", "panic", r)
			analysis = FrameAnalysis{}
		}
	}()

	if frame == nil || frame.Bounds().Empty() {
		return FrameAnalysis{}
	}

	gray := a.backend.Grayscale(frame)
	analysis.Brightness = MeanIntensity(gray) / 255 * 100

	edges := a.backend.DetectEdges(gray, a.cfg.EdgeThreshold)
	largest, ok := a.largestContour(a.backend.FindContours(edges))
	if !ok {
		return analysis
	}

	rect := a.backend.BoundingRect(largest)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	if h == 0 {
		return analysis
	}

	ratioOK := math.Abs(w/h-a.cfg.TargetRatio) < a.cfg.RatioTolerance

	// A rotated card fattens its axis-aligned bounding box, pulling the
	// diagonal away from the angle the card ratio implies. Comparing the
	// measured diagonal against the expected one rejects rotated frames
	// that still happen to pass the ratio window.
	diagonal := math.Atan2(h, w) * 180 / math.Pi
	expected := math.Atan2(1, a.cfg.TargetRatio) * 180 / math.Pi
	angleOK := math.Abs(diagonal-expected) < a.cfg.AngleTolerance

	analysis.Aligned = ratioOK && angleOK
	return analysis
}

// largestContour selects the contour enclosing the most area, approximated
// by its bounding rectangle.
func (a *Analyzer) largestContour(contours []Contour) (Contour, bool) {
	var best Contour
	bestArea := 0
	for _, c := range contours {
		r := a.backend.BoundingRect(c)
		if area := r.Dx() * r.Dy(); area > bestArea {
			bestArea = area
			best = c
		}
	}
	return best, best != nil
}
