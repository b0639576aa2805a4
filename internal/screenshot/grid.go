package screenshot

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	gridLine   = color.RGBA{R: 230, G: 20, B: 20, A: 255}
	labelBack  = color.RGBA{R: 255, G: 255, B: 255, A: 220}
	labelColor = color.RGBA{A: 255}
)

// Grid divides an image into Columns x Rows cells numbered 1..Columns*Rows,
// row by row from the top left.
type Grid struct {
	Columns int
	Rows    int
}

// Cells returns the number of cells.
func (g Grid) Cells() int { return g.Columns * g.Rows }

// CellCenter returns the center of cell n in an image of width x height.
func (g Grid) CellCenter(n, width, height int) (float64, float64, error) {
	if g.Columns <= 0 || g.Rows <= 0 {
		return 0, 0, fmt.Errorf("grid must have positive dimensions, got %dx%d", g.Columns, g.Rows)
	}
	if n < 1 || n > g.Cells() {
		return 0, 0, fmt.Errorf("cell %d is outside the grid (1..%d)", n, g.Cells())
	}
	idx := n - 1
	cellW := float64(width) / float64(g.Columns)
	cellH := float64(height) / float64(g.Rows)
	x := (float64(idx%g.Columns) + 0.5) * cellW
	y := (float64(idx/g.Columns) + 0.5) * cellH
	return x, y, nil
}

// DrawGrid returns a copy of src with the cell borders and numbers painted on.
func DrawGrid(src image.Image, g Grid) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if g.Columns <= 0 || g.Rows <= 0 {
		return dst
	}

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for c := 1; c < g.Columns; c++ {
		x := c * w / g.Columns
		for y := 0; y < h; y++ {
			dst.SetRGBA(x, y, gridLine)
		}
	}
	for r := 1; r < g.Rows; r++ {
		y := r * h / g.Rows
		for x := 0; x < w; x++ {
			dst.SetRGBA(x, y, gridLine)
		}
	}

	face := basicfont.Face7x13
	for n := 1; n <= g.Cells(); n++ {
		idx := n - 1
		x0 := (idx % g.Columns) * w / g.Columns
		y0 := (idx / g.Columns) * h / g.Rows
		label := strconv.Itoa(n)

		d := &font.Drawer{Dst: dst, Src: image.NewUniform(labelColor), Face: face}
		textW := d.MeasureString(label).Ceil()
		box := image.Rect(x0+2, y0+2, x0+textW+6, y0+face.Height+4)
		draw.Draw(dst, box, image.NewUniform(labelBack), image.Point{}, draw.Over)

		d.Dot = fixed.P(x0+4, y0+2+face.Ascent)
		d.DrawString(label)
	}
	return dst
}
