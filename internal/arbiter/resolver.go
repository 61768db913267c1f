package arbiter

import (
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/expression"
	"github.com/ayusman/mudra/internal/gesture"
)

// Resolve classifies every hand and the face in one landmark frame and
// composes the interaction state. It never fails; an empty frame resolves to
// the idle state.
func Resolve(frame uint64, result detector.Result) State {
	hands := make([]HandResult, 0, len(result.Hands))
	winner := gesture.NoGesture
	parts := make([]string, 0, len(result.Hands))

	for i := range result.Hands {
		f := gesture.Extract(&result.Hands[i])
		label := gesture.Classify(f)

		hr := HandResult{
			Handedness:  f.Handedness,
			Orientation: f.Orientation.String(),
			Label:       label,
			Text:        label.String(),
			Priority:    label.Priority(),
		}
		hands = append(hands, hr)
		parts = append(parts, fmt.Sprintf("%s (%s): %s", hr.Handedness, hr.Orientation, hr.Text))

		// Strictly greater keeps the first hand on ties.
		if label.Priority() > winner.Priority() {
			winner = label
		}
	}

	text := TextNoHand
	if len(parts) > 0 {
		text = strings.Join(parts, " | ")
	}

	expr := expression.Detect(result.Face)

	return State{
		GestureText: text,
		Expression:  expr,
		ImageKey:    imageKey(winner, expr),
		Winner:      winner,
		WinnerText:  winner.String(),
		Hands:       hands,
		Frame:       frame,
	}
}

// imageKey picks the response image. A strong gesture always wins; weak or
// absent gestures yield to any non-neutral expression.
func imageKey(winner gesture.Label, expr expression.Label) asset.Key {
	if winner.Weak() {
		if key, ok := expr.ImageKey(); ok {
			return key
		}
	}
	return winner.ImageKey()
}
