// Package gesture extracts per-hand geometric features from landmarks and
// classifies them into named gestures.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// Orientation is which side of the hand faces the camera.
type Orientation int

const (
	Palm Orientation = iota
	Back
)

func (o Orientation) String() string {
	if o == Back {
		return "Back"
	}
	return "Palm"
}

// Finger indexes FingerStates.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerStates holds one extended flag per finger, thumb first.
type FingerStates [5]bool

// Count returns the number of extended fingers.
func (f FingerStates) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// allFlexed reports whether index, middle, ring and pinky are all down.
func (f FingerStates) allFlexed() bool {
	return !f[Index] && !f[Middle] && !f[Ring] && !f[Pinky]
}

// Features is the geometric summary of one hand in one frame.
type Features struct {
	Handedness  detector.Handedness
	Orientation Orientation
	Fingers     FingerStates

	// PinchDistance is the thumb tip to index tip distance in normalized units.
	PinchDistance float64
	// HandScale is the wrist to middle MCP distance; it normalizes PinchDistance.
	HandScale float64
	// ThumbUp is set when the thumb tip is above the thumb IP joint.
	ThumbUp bool
}

// fingertip and PIP landmark pairs for the four non-thumb fingers.
var fingerJoints = [...]struct {
	finger   Finger
	tip, pip int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// Extract computes Features for a single hand.
func Extract(hand *detector.HandLandmarks) Features {
	p := &hand.Points
	handedness := detector.ParseHandedness(string(hand.Handedness))
	orientation := OrientationOf(handedness, p[detector.Wrist], p[detector.IndexMCP], p[detector.PinkyMCP])

	var fingers FingerStates
	fingers[Thumb] = ThumbExtended(handedness, orientation, p[detector.ThumbTip].X, p[detector.ThumbIP].X)
	for _, j := range fingerJoints {
		// Image y grows downward, so a raised fingertip has the smaller y.
		fingers[j.finger] = p[j.tip].Y < p[j.pip].Y
	}

	return Features{
		Handedness:    handedness,
		Orientation:   orientation,
		Fingers:       fingers,
		PinchDistance: detector.Distance2D(p[detector.ThumbTip], p[detector.IndexTip]),
		HandScale:     detector.Distance2D(p[detector.Wrist], p[detector.MiddleMCP]),
		ThumbUp:       p[detector.ThumbTip].Y < p[detector.ThumbIP].Y,
	}
}

// OrientationOf decides palm or back from the sign of the 2D cross product of
// (indexMCP - wrist) and (pinkyMCP - wrist). The sign flips between hands.
func OrientationOf(h detector.Handedness, wrist, indexMCP, pinkyMCP detector.Point3D) Orientation {
	cross := (indexMCP.X-wrist.X)*(pinkyMCP.Y-wrist.Y) - (indexMCP.Y-wrist.Y)*(pinkyMCP.X-wrist.X)

	if h == detector.Left {
		if cross < 0 {
			return Palm
		}
		return Back
	}
	if cross > 0 {
		return Palm
	}
	return Back
}

// thumbOutward says, per hand and orientation, whether an extended thumb tip
// sits to the left (smaller x) of its IP joint.
var thumbOutward = map[detector.Handedness]map[Orientation]bool{
	detector.Right: {Palm: true, Back: false},
	detector.Left:  {Palm: false, Back: true},
}

// ThumbExtended reports whether the thumb is extended given the hand,
// its orientation and the x coordinates of the thumb tip and IP joint.
func ThumbExtended(h detector.Handedness, o Orientation, tipX, ipX float64) bool {
	left, ok := thumbOutward[h][o]
	if !ok {
		left = thumbOutward[detector.DefaultHandedness][o]
	}
	if left {
		return tipX < ipX
	}
	return tipX > ipX
}
