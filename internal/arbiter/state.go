// Package arbiter combines per-hand gesture results and the face expression
// into one published interaction state.
package arbiter

import (
	"time"

	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/expression"
	"github.com/ayusman/mudra/internal/gesture"
)

// Display sentinels for GestureText.
const (
	TextInitial     = "None"
	TextNoHand      = "No hand"
	TextCameraError = "Camera error"
)

// HandResult is one hand's classification.
type HandResult struct {
	Handedness  detector.Handedness `json:"handedness"`
	Orientation string              `json:"orientation"`
	Label       gesture.Label       `json:"-"`
	Text        string              `json:"gesture"`
	Priority    int                 `json:"priority"`
}

// State is an immutable snapshot of the interaction. It is replaced
// wholesale on every frame and must not be modified once published.
type State struct {
	GestureText string           `json:"gesture_text"`
	Expression  expression.Label `json:"expression"`
	ImageKey    asset.Key        `json:"image_key"`

	Winner      gesture.Label `json:"-"`
	WinnerText  string        `json:"winner"`
	Hands       []HandResult  `json:"hands"`
	CameraError bool          `json:"camera_error"`

	// Frame is the pipeline sequence number of the frame this state came from.
	Frame uint64 `json:"frame"`
	// Version increments on every successful publish.
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Initial is the state published before the first frame is processed.
func Initial() State {
	return State{
		GestureText: TextInitial,
		Expression:  expression.Neutral,
		ImageKey:    asset.Neutro,
		Winner:      gesture.NoGesture,
		WinnerText:  gesture.NoGesture.String(),
	}
}

// CameraErrorState is published for frames where the camera could not be read.
func CameraErrorState(frame uint64) State {
	return State{
		GestureText: TextCameraError,
		Expression:  expression.Neutral,
		ImageKey:    asset.Neutro,
		Winner:      gesture.NoGesture,
		WinnerText:  gesture.NoGesture.String(),
		CameraError: true,
		Frame:       frame,
	}
}

// Primary returns the winning hand's result, if any hand was seen.
func (s State) Primary() (HandResult, bool) {
	for _, h := range s.Hands {
		if h.Label == s.Winner {
			return h, true
		}
	}
	return HandResult{}, false
}

// clone returns s with its own Hands slice.
func (s State) clone() State {
	if s.Hands != nil {
		s.Hands = append([]HandResult(nil), s.Hands...)
	}
	return s
}
