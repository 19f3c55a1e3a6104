package imaging

import (
	"image"
	"image/color"
)

func gray8(v uint8) color.Gray { return color.Gray{Y: v} }

// MeanIntensity returns the average pixel value of a grayscale image, 0-255.
func MeanIntensity(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	var sum uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := gray.Pix[(y-bounds.Min.Y)*gray.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			sum += uint64(row[x])
		}
	}
	return float64(sum) / float64(total)
}

// EqualizeHist spreads the grayscale histogram over the full range, the
// classic contrast enhancement applied before detection and to the final
// portrait crop.
func EqualizeHist(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	total := w * h
	if total == 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	// Cumulative distribution, anchored at the first occupied bin so the
	// darkest present value maps to 0.
	var lut [256]uint8
	cdf := 0
	cdfMin := 0
	for _, count := range hist {
		if count > 0 {
			cdfMin = count
			break
		}
	}
	denom := total - cdfMin
	if denom <= 0 {
		denom = 1
	}
	for i, count := range hist {
		cdf += count
		v := (cdf - cdfMin) * 255 / denom
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray(x, y, gray8(lut[gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y]))
		}
	}
	return out
}

// GaussianBlur3 applies a 3x3 gaussian kernel, the light noise smoothing
// used on portrait crops. Border pixels are copied unchanged.
func GaussianBlur3(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) int {
		return int(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				out.SetGray(x, y, gray8(uint8(at(x, y))))
				continue
			}
			sum := at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1) +
				2*at(x-1, y) + 4*at(x, y) + 2*at(x+1, y) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			out.SetGray(x, y, gray8(uint8((sum+8)/16)))
		}
	}
	return out
}

// CropGray copies a rectangular region into a fresh zero-origin image.
// The region is clamped to the source bounds.
func CropGray(gray *image.Gray, region image.Rectangle) *image.Gray {
	region = region.Intersect(gray.Bounds())
	out := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			out.SetGray(x, y, gray.GrayAt(region.Min.X+x, region.Min.Y+y))
		}
	}
	return out
}
