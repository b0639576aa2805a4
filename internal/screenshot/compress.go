package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
)

// FitWithin returns the largest size with the aspect ratio of w x h that fits
// inside maxW x maxH. Images that already fit are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(nw, 1), max(nh, 1)
}

// Decode reads a JPEG or PNG capture.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// Compress shrinks img to fit maxW x maxH and encodes it as JPEG.
func Compress(img image.Image, maxW, maxH, quality int) ([]byte, error) {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxW, maxH)

	var src image.Image = img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		src = dst
	}
	return EncodeJPEG(src, quality)
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
