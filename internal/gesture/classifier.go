package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/asset"
)

// OKPinchRatio is the thumb-index gap, as a fraction of HandScale, below
// which the two fingertips count as touching.
const OKPinchRatio = 0.15

// Kind is the closed set of gesture categories.
type Kind int

const (
	None Kind = iota
	FingerCount
	ClosedFist
	OpenHand
	PeaceSign
	Like
	OK
)

// kindInfo is the exhaustive per-kind table driving arbitration and display.
var kindInfo = map[Kind]struct {
	priority int
	name     string
	image    asset.Key
}{
	None:        {-1, "None", asset.Neutro},
	FingerCount: {0, "Fingers", asset.Neutro},
	ClosedFist:  {1, "Closed Fist", asset.Lua},
	OpenHand:    {2, "Open Hand", asset.Sol},
	PeaceSign:   {3, "Peace", asset.Paz},
	Like:        {4, "Like", asset.Like},
	OK:          {5, "OK", asset.OK},
}

// Label is the classification of one hand. Count is only meaningful for
// FingerCount.
type Label struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count,omitempty"`
}

// NoGesture is the label used when no hand is present.
var NoGesture = Label{Kind: None}

// Priority ranks labels for arbitration; higher wins.
func (l Label) Priority() int {
	return kindInfo[l.Kind].priority
}

// ImageKey is the response image associated with the label.
func (l Label) ImageKey() asset.Key {
	return kindInfo[l.Kind].image
}

// Weak reports whether a detected facial expression may override this label.
func (l Label) Weak() bool {
	switch l.Kind {
	case None, ClosedFist, OpenHand:
		return true
	}
	return false
}

func (l Label) String() string {
	if l.Kind == FingerCount {
		return fmt.Sprintf("Fingers: %d", l.Count)
	}
	return kindInfo[l.Kind].name
}

func (k Kind) String() string {
	return kindInfo[k].name
}

// Classify maps hand features to a gesture. Rules are checked in descending
// priority and the first match wins.
func Classify(f Features) Label {
	fingers := f.Fingers

	// Coincident tips count as a pinch even on a collapsed hand.
	pinched := f.PinchDistance == 0 || f.PinchDistance < OKPinchRatio*f.HandScale

	switch {
	case pinched && fingers[Ring] && fingers[Pinky]:
		return Label{Kind: OK}
	case f.ThumbUp && fingers.allFlexed():
		return Label{Kind: Like}
	case fingers[Index] && fingers[Middle] && !fingers[Ring] && !fingers[Pinky]:
		return Label{Kind: PeaceSign}
	case fingers.Count() == len(fingers):
		return Label{Kind: OpenHand}
	case fingers.allFlexed():
		return Label{Kind: ClosedFist}
	default:
		return Label{Kind: FingerCount, Count: fingers.Count()}
	}
}
