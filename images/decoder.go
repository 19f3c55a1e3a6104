// Package images decodes uploaded document photos and encodes processed
// crops for transport.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"

	"pault.ag/go/cbeff/jpeg2000"
)

// Decode turns uploaded photo bytes into an image, trying formats from most
// to least common: JPEG, JPEG 2000, then anything the registered generic
// decoders handle.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}

	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := jpeg2000.Parse(data); err == nil {
		slog.Debug("decoded upload as jpeg2000", "data_size", len(data))
		return img, nil
	}

	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("unsupported or invalid image format")
}
