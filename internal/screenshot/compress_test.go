package screenshot

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitWithin(t *testing.T) {
	testCases := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"already fits", 700, 600, 900, 635, 700, 600},
		{"height bound", 700, 800, 900, 635, 556, 635},
		{"width bound", 1800, 600, 900, 635, 900, 300},
		{"never upscales", 100, 50, 900, 635, 100, 50},
		{"degenerate", 0, 10, 900, 635, 0, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := FitWithin(tc.w, tc.h, tc.maxW, tc.maxH)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestCompress(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1800, 600))
	for x := 0; x < 1800; x++ {
		img.SetRGBA(x, 300, color.RGBA{R: 255, A: 255})
	}

	data, err := Compress(img, 900, 635, 85)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 900, 300), out.Bounds())
}
