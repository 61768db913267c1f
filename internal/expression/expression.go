// Package expression classifies a facial expression from face mesh landmarks.
package expression

import (
	"math"

	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/detector"
)

// Thresholds on the normalized mouth measurements.
const (
	SurpriseOpenRatio = 0.15
	SmileWidthRatio   = 0.40

	// DegenerateEpsilon is the smallest face height or width, in normalized
	// units, that is still classified. Smaller faces are extreme poses.
	DegenerateEpsilon = 1e-3
)

// Label is the closed set of expressions.
type Label int

const (
	Neutral Label = iota
	Smile
	Surprise
)

func (l Label) String() string {
	switch l {
	case Smile:
		return "Smile"
	case Surprise:
		return "Surprise"
	default:
		return "Neutral"
	}
}

// MarshalText renders the label by name in JSON.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ImageKey returns the response image for the expression. Neutral has none.
func (l Label) ImageKey() (asset.Key, bool) {
	switch l {
	case Smile:
		return asset.Sorriso, true
	case Surprise:
		return asset.Surpresa, true
	default:
		return "", false
	}
}

// Features are the mouth measurements normalized by face size.
type Features struct {
	MouthOpenRatio  float64
	MouthWidthRatio float64
}

// Extract measures the mouth relative to the face. It returns false when a
// required landmark is missing or the face is too small to measure.
func Extract(face *detector.FaceLandmarks) (Features, bool) {
	var pts [8]detector.Point3D
	for i, idx := range [...]int{
		detector.FaceForehead, detector.FaceChin,
		detector.FaceCheekLeft, detector.FaceCheekRight,
		detector.FaceUpperLip, detector.FaceLowerLip,
		detector.FaceMouthLeft, detector.FaceMouthRight,
	} {
		p, ok := face.Point(idx)
		if !ok {
			return Features{}, false
		}
		pts[i] = p
	}
	forehead, chin, cheekL, cheekR, upper, lower, mouthL, mouthR :=
		pts[0], pts[1], pts[2], pts[3], pts[4], pts[5], pts[6], pts[7]

	height := math.Abs(chin.Y - forehead.Y)
	width := math.Abs(cheekR.X - cheekL.X)
	if height < DegenerateEpsilon || width < DegenerateEpsilon {
		return Features{}, false
	}

	return Features{
		MouthOpenRatio:  math.Abs(lower.Y-upper.Y) / height,
		MouthWidthRatio: math.Abs(mouthR.X-mouthL.X) / width,
	}, true
}

// Classify maps mouth measurements to an expression. An open mouth takes
// precedence over a wide one.
func Classify(f Features) Label {
	switch {
	case f.MouthOpenRatio > SurpriseOpenRatio:
		return Surprise
	case f.MouthWidthRatio > SmileWidthRatio:
		return Smile
	default:
		return Neutral
	}
}

// Detect extracts and classifies in one step. Missing or degenerate faces are
// Neutral.
func Detect(face *detector.FaceLandmarks) Label {
	f, ok := Extract(face)
	if !ok {
		return Neutral
	}
	return Classify(f)
}
