package util

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// ImageToWebp re-encodes an uploaded cover image as webp. Covers are
// served many times per upload, so the smaller encoding pays off.
func ImageToWebp(data []byte, quality float32) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode cover image")
	}

	out, err := webp.EncodeRGBA(img, quality)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode webp")
	}
	return out, nil
}
