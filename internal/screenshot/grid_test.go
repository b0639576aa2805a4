package screenshot

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_CellCenter(t *testing.T) {
	g := Grid{Columns: 4, Rows: 2}

	testCases := []struct {
		cell  int
		wantX float64
		wantY float64
	}{
		{1, 50, 50},
		{4, 350, 50},
		{5, 50, 150},
		{8, 350, 150},
	}
	for _, tc := range testCases {
		x, y, err := g.CellCenter(tc.cell, 400, 200)
		require.NoError(t, err)
		assert.InDelta(t, tc.wantX, x, 0.001, "cell %d", tc.cell)
		assert.InDelta(t, tc.wantY, y, 0.001, "cell %d", tc.cell)
	}

	_, _, err := g.CellCenter(0, 400, 200)
	assert.Error(t, err, "0 means the model was unsure")
	_, _, err = g.CellCenter(9, 400, 200)
	assert.Error(t, err)
	_, _, err = Grid{}.CellCenter(1, 400, 200)
	assert.Error(t, err)
}

func TestDrawGrid(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			src.SetRGBA(x, y, color.RGBA{G: 200, A: 255})
		}
	}

	out := DrawGrid(src, Grid{Columns: 2, Rows: 2})
	require.Equal(t, src.Bounds(), out.Bounds())

	assert.Equal(t, gridLine, out.RGBAAt(100, 75), "vertical border")
	assert.Equal(t, gridLine, out.RGBAAt(150, 50), "horizontal border")
	assert.Equal(t, color.RGBA{G: 200, A: 255}, out.RGBAAt(150, 80), "cell interior untouched")
	assert.NotEqual(t, color.RGBA{G: 200, A: 255}, out.RGBAAt(4, 4), "label box painted")

	// The source is not modified.
	assert.Equal(t, color.RGBA{G: 200, A: 255}, src.RGBAAt(100, 75))
}
