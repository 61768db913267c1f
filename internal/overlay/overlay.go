// Package overlay draws landmark skeletons and the interaction status onto
// camera frames for the annotated stream.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/detector"
	"gocv.io/x/gocv"
)

var (
	boneColor  = color.RGBA{0, 255, 0, 255}
	jointColor = color.RGBA{255, 0, 0, 255}
	textColor  = color.RGBA{255, 255, 255, 255}
	panelColor = color.RGBA{0, 0, 0, 255}
	errorColor = color.RGBA{255, 60, 60, 255}
)

// Style controls line widths and text size.
type Style struct {
	BoneThickness int
	JointRadius   int
	FontScale     float64
}

// DefaultStyle returns the style used by the annotated stream.
func DefaultStyle() Style {
	return Style{BoneThickness: 2, JointRadius: 4, FontScale: 0.6}
}

// DrawHands draws each hand's skeleton onto dst.
func DrawHands(dst *gocv.Mat, hands []detector.HandLandmarks, st Style) {
	w, h := dst.Cols(), dst.Rows()
	for i := range hands {
		pts := &hands[i].Points
		for _, c := range detector.HandConnections {
			gocv.Line(dst, pixel(pts[c[0]], w, h), pixel(pts[c[1]], w, h), boneColor, st.BoneThickness)
		}
		for _, p := range pts {
			gocv.Circle(dst, pixel(p, w, h), st.JointRadius, jointColor, -1)
		}
	}
}

// DrawStatus writes the gesture text, expression and response key in a
// panel along the bottom of dst.
func DrawStatus(dst *gocv.Mat, s arbiter.State, st Style) {
	w, h := dst.Cols(), dst.Rows()
	lineHeight := int(30 * st.FontScale / 0.6)

	lines := []string{
		s.GestureText,
		fmt.Sprintf("Expression: %s  Image: %s", s.Expression, s.ImageKey),
	}
	top := h - lineHeight*len(lines) - 10
	gocv.Rectangle(dst, image.Rect(0, top, w, h), panelColor, -1)

	c := textColor
	if s.CameraError {
		c = errorColor
	}
	for i, line := range lines {
		org := image.Pt(10, top+lineHeight*(i+1))
		gocv.PutText(dst, line, org, gocv.FontHersheySimplex, st.FontScale, c, 1)
	}
}

// Annotate draws hands and status onto dst.
func Annotate(dst *gocv.Mat, hands []detector.HandLandmarks, s arbiter.State) {
	st := DefaultStyle()
	DrawHands(dst, hands, st)
	DrawStatus(dst, s, st)
}

func pixel(p detector.Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}
