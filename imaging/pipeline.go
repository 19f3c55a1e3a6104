package imaging

import (
	"fmt"
	"image"
)

// Pipeline composes the still-image presentation path: locate the document
// outline in a captured photo, flatten it and cut out the portrait.
type Pipeline struct {
	backend       Backend
	rectifier     *Rectifier
	faces         *FaceExtractor
	edgeThreshold uint8
}

func NewPipeline(backend Backend) *Pipeline {
	return &Pipeline{
		backend:       backend,
		rectifier:     NewRectifier(backend),
		faces:         NewFaceExtractor(backend),
		edgeThreshold: 60,
	}
}

// Rectify finds the largest contour in the photo and warps its bounding
// quadrilateral into a frontal view.
func (p *Pipeline) Rectify(photo image.Image) (*image.RGBA, error) {
	gray := p.backend.Grayscale(photo)
	edges := p.backend.DetectEdges(gray, p.edgeThreshold)

	var best Contour
	bestArea := 0
	for _, c := range p.backend.FindContours(edges) {
		r := p.backend.BoundingRect(c)
		if area := r.Dx() * r.Dy(); area > bestArea {
			bestArea = area
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no document contour found")
	}

	rect := p.backend.BoundingRect(best)
	corners := [4]image.Point{
		rect.Min,
		{rect.Max.X - 1, rect.Min.Y},
		{rect.Max.X - 1, rect.Max.Y - 1},
		{rect.Min.X, rect.Max.Y - 1},
	}
	return p.rectifier.Rectify(photo, corners)
}

// ExtractPortrait runs the full presentation path. A missing portrait is
// reported as (nil, nil); only a missing document outline is an error.
func (p *Pipeline) ExtractPortrait(photo image.Image) (*image.Gray, error) {
	rectified, err := p.Rectify(photo)
	if err != nil {
		return nil, err
	}
	return p.faces.Extract(rectified), nil
}
