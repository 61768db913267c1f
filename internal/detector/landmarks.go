// Package detector defines the landmark frame produced by the external hand and
// face landmark detector, and the Detector implementations that produce it.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// HandConnections is the fixed skeleton topology used to draw a hand.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Handedness is the detector's classification of a hand as left or right.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// DefaultHandedness is used whenever the detector omits or garbles the label.
const DefaultHandedness = Right

// ParseHandedness converts a detector label into a Handedness.
// Anything other than "Left" or "Right" yields DefaultHandedness.
func ParseHandedness(label string) Handedness {
	switch Handedness(label) {
	case Left:
		return Left
	case Right:
		return Right
	default:
		return DefaultHandedness
	}
}

// Point3D represents a normalized landmark. X and Y are in [0,1] relative to
// the frame width and height; Z is carried through but ignored by classifiers.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between a and b in the image plane.
func Distance2D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// Result is everything the detector found in a single frame.
type Result struct {
	Hands []HandLandmarks `json:"hands"`
	Face  *FaceLandmarks  `json:"face,omitempty"`
}

// Empty reports whether nothing was detected.
func (r Result) Empty() bool {
	return len(r.Hands) == 0 && r.Face == nil
}
