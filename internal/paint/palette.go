package paint

import (
	"image"
	"image/color"
)

// Entry is one selectable palette button.
type Entry struct {
	Name      string
	Color     color.RGBA
	Thickness int
	Eraser    bool
}

// Background is the blank canvas colour. Painting with it erases, because
// the compositing mask only takes non-background canvas pixels.
var Background = color.RGBA{0, 0, 0, 255}

// DefaultPalette returns blue, green, red and the eraser, left to right.
func DefaultPalette(brush, eraser int) []Entry {
	return []Entry{
		{Name: "blue", Color: color.RGBA{0, 0, 255, 255}, Thickness: brush},
		{Name: "green", Color: color.RGBA{0, 255, 0, 255}, Thickness: brush},
		{Name: "red", Color: color.RGBA{255, 0, 0, 255}, Thickness: brush},
		{Name: "eraser", Color: Background, Thickness: eraser, Eraser: true},
	}
}

// zones splits the header strip into n equal buttons separated by gap pixels.
func zones(width, header, n, gap int) []image.Rectangle {
	out := make([]image.Rectangle, n)
	w := width / n
	for i := range out {
		out[i] = image.Rect(i*w+gap, gap, (i+1)*w-gap, header-gap)
	}
	return out
}

// hit returns the zone containing p, or -1.
func hit(zs []image.Rectangle, p image.Point) int {
	for i, z := range zs {
		if p.In(z) {
			return i
		}
	}
	return -1
}
