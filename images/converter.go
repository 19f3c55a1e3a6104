package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color/palette"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ToPNGBase64 encodes an image to base64 PNG with optional resize and
// quantization.
//
// maxW/maxH: if >0, the image is downscaled to fit within this box (keeping aspect ratio)
// colors:    if >0, convert to a paletted image (≤256 colors is typical for PNG)
// level:     png.DefaultCompression, png.BestCompression, png.BestSpeed, etc.
func ToPNGBase64(img image.Image, maxW, maxH, colors int, level png.CompressionLevel) (string, error) {
	if maxW > 0 || maxH > 0 {
		img = resizeToFit(img, maxW, maxH)
	}

	var out = img
	if colors > 0 {
		// Plan9 (256 colors) or WebSafe (~216 colors)
		pal := palette.Plan9
		if colors <= 216 {
			pal = palette.WebSafe
		}
		dst := image.NewPaletted(img.Bounds(), pal)
		// Floyd–Steinberg dithering
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, image.Point{})
		out = dst
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, out); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PortraitPNG is the transport encoding used for extracted portraits:
// bounded to 400x400, palettized, best compression.
func PortraitPNG(img image.Image) (string, error) {
	return ToPNGBase64(img, 400, 400, 256, png.BestCompression)
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio)
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src // already small enough
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos/faces
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
