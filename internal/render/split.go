package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// subImager is satisfied by every concrete image type the png decoder
// produces.
type subImager interface {
	image.Image
	SubImage(r image.Rectangle) image.Image
}

// splitHalves cuts a PNG bitmap into top and bottom halves by pixel
// height. The top half gets floor(height/2) rows, the bottom the rest.
func splitHalves(data []byte) (top, bottom []byte, err error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode page bitmap: %w", err)
	}

	si, ok := img.(subImager)
	if !ok {
		return nil, nil, fmt.Errorf("bitmap type %T does not support cropping", img)
	}

	b := img.Bounds()
	if b.Dy() < 2 {
		return nil, nil, fmt.Errorf("bitmap too small to split (%dx%d)", b.Dx(), b.Dy())
	}
	halfY := b.Min.Y + b.Dy()/2

	top, err = encodePNG(si.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, halfY)))
	if err != nil {
		return nil, nil, err
	}
	bottom, err = encodePNG(si.SubImage(image.Rect(b.Min.X, halfY, b.Max.X, b.Max.Y)))
	if err != nil {
		return nil, nil, err
	}
	return top, bottom, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode half bitmap: %w", err)
	}
	return buf.Bytes(), nil
}
