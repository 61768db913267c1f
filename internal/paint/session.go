// Package paint implements the finger-painting interaction: a persistent
// canvas driven by the primary hand's index fingertip, a four-entry palette
// in a header strip, and clearing with an open hand.
package paint

import (
	"errors"
	"image"
	"image/color"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"gocv.io/x/gocv"
)

// Action is what a Step did to the session.
type Action int

const (
	// Interrupted means no stroke is in progress after the step.
	Interrupted Action = iota
	// Cleared means the canvas was wiped.
	Cleared
	// Selected means a palette entry was picked.
	Selected
	// StrokeStarted means the cursor was placed without drawing.
	StrokeStarted
	// Drew means a segment was drawn and the cursor advanced.
	Drew
)

func (a Action) String() string {
	switch a {
	case Cleared:
		return "cleared"
	case Selected:
		return "selected"
	case StrokeStarted:
		return "stroke_started"
	case Drew:
		return "drew"
	default:
		return "interrupted"
	}
}

// ClearFingers is the number of extended fingers that wipes the canvas.
const ClearFingers = 4

// Config holds painting session settings.
type Config struct {
	Width  int
	Height int
	// HeaderHeight is the reserved palette strip at the top of the frame.
	HeaderHeight    int
	ZoneGap         int
	BrushThickness  int
	EraserThickness int
	// NoticeFrames is how many steps the "cleared" notice stays visible.
	NoticeFrames int
}

// DefaultConfig returns sensible defaults for a 640x480 display.
func DefaultConfig() Config {
	return Config{
		Width:           640,
		Height:          480,
		HeaderHeight:    80,
		ZoneGap:         8,
		BrushThickness:  10,
		EraserThickness: 40,
		NoticeFrames:    30,
	}
}

// ErrSizeMismatch is returned by Composite when the frame is not the
// canvas size.
var ErrSizeMismatch = errors.New("frame size does not match canvas")

// Session is one painting surface and its interaction state. A Session is
// owned by a single pipeline and is not safe for concurrent use.
type Session struct {
	cfg     Config
	palette []Entry
	zones   []image.Rectangle

	canvas   gocv.Mat
	selected int

	cursor image.Point
	active bool

	notice int
}

// NewSession creates a blank canvas with the first palette entry selected.
func NewSession(cfg Config) *Session {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.HeaderHeight <= 0 || cfg.HeaderHeight >= cfg.Height {
		cfg.HeaderHeight = cfg.Height / 6
	}
	if cfg.BrushThickness <= 0 {
		cfg.BrushThickness = def.BrushThickness
	}
	if cfg.EraserThickness <= 0 {
		cfg.EraserThickness = def.EraserThickness
	}

	palette := DefaultPalette(cfg.BrushThickness, cfg.EraserThickness)
	return &Session{
		cfg:     cfg,
		palette: palette,
		zones:   zones(cfg.Width, cfg.HeaderHeight, len(palette), cfg.ZoneGap),
		canvas:  gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), cfg.Height, cfg.Width, gocv.MatTypeCV8UC3),
	}
}

// Close releases the canvas.
func (s *Session) Close() error {
	return s.canvas.Close()
}

// Step advances the session by one frame using the primary hand. A nil hand
// interrupts any stroke in progress.
func (s *Session) Step(hand *detector.HandLandmarks) Action {
	if s.notice > 0 {
		s.notice--
	}
	if hand == nil {
		s.active = false
		return Interrupted
	}

	fingers := gesture.Extract(hand).Fingers
	if fingers.Count() >= ClearFingers {
		s.Clear()
		return Cleared
	}
	if !fingers[gesture.Index] {
		s.active = false
		return Interrupted
	}

	p := s.toPixel(hand.Points[detector.IndexTip])

	if p.Y < s.cfg.HeaderHeight {
		s.active = false
		if i := hit(s.zones, p); i >= 0 {
			s.selected = i
			return Selected
		}
		return Interrupted
	}

	if !s.active {
		s.cursor = p
		s.active = true
		return StrokeStarted
	}

	e := s.palette[s.selected]
	gocv.Line(&s.canvas, s.cursor, p, e.Color, e.Thickness)
	s.cursor = p
	return Drew
}

// Clear blanks the canvas, resets the cursor and raises the cleared notice.
func (s *Session) Clear() {
	s.canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))
	s.active = false
	s.notice = s.cfg.NoticeFrames
}

// Composite writes frame into dst with every painted canvas pixel on top.
func (s *Session) Composite(frame gocv.Mat, dst *gocv.Mat) error {
	if frame.Rows() != s.cfg.Height || frame.Cols() != s.cfg.Width {
		return ErrSizeMismatch
	}
	frame.CopyTo(dst)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(s.canvas, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, 0, 255, gocv.ThresholdBinary)

	s.canvas.CopyToWithMask(dst, mask)
	return nil
}

var (
	labelColor  = color.RGBA{255, 255, 255, 255}
	eraserColor = color.RGBA{90, 90, 90, 255}
)

// DrawPalette draws the header buttons onto dst, highlighting the selected
// entry, and the cleared notice while it is visible.
func (s *Session) DrawPalette(dst *gocv.Mat) {
	for i, z := range s.zones {
		e := s.palette[i]
		fill := e.Color
		if e.Eraser {
			fill = eraserColor
		}
		gocv.Rectangle(dst, z, fill, -1)
		if i == s.selected {
			gocv.Rectangle(dst, z, labelColor, 3)
		}
		if e.Eraser {
			gocv.PutText(dst, "ERASER", image.Pt(z.Min.X+10, z.Max.Y-20), gocv.FontHersheySimplex, 0.6, labelColor, 2)
		}
	}
	if s.notice > 0 {
		gocv.PutText(dst, "Cleared", image.Pt(s.cfg.Width/2-60, s.cfg.Height/2), gocv.FontHersheySimplex, 1.2, labelColor, 3)
	}
}

// Render composites frame into dst and draws the palette on top.
func (s *Session) Render(frame gocv.Mat, dst *gocv.Mat) error {
	if err := s.Composite(frame, dst); err != nil {
		return err
	}
	s.DrawPalette(dst)
	return nil
}

// Selected returns the index and entry of the current palette selection.
func (s *Session) Selected() (int, Entry) {
	return s.selected, s.palette[s.selected]
}

// Palette returns the palette entries in button order.
func (s *Session) Palette() []Entry {
	return append([]Entry(nil), s.palette...)
}

// Zones returns the button rectangles in pixel coordinates.
func (s *Session) Zones() []image.Rectangle {
	return append([]image.Rectangle(nil), s.zones...)
}

// Cursor returns the last stroke point and whether a stroke is active.
func (s *Session) Cursor() (image.Point, bool) {
	return s.cursor, s.active
}

// NoticeVisible reports whether the cleared notice is showing.
func (s *Session) NoticeVisible() bool {
	return s.notice > 0
}

// Canvas returns the drawing surface. Callers must not modify or close it.
func (s *Session) Canvas() gocv.Mat {
	return s.canvas
}

// Config returns the session's effective configuration.
func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) toPixel(p detector.Point3D) image.Point {
	x := int(p.X * float64(s.cfg.Width))
	y := int(p.Y * float64(s.cfg.Height))
	return image.Pt(clamp(x, 0, s.cfg.Width-1), clamp(y, 0, s.cfg.Height-1))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
