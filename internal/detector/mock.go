package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	result Result
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Hands = hands
}

// SetFace sets the face that will be returned by Detect. Nil clears it.
func (m *MockDetector) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Face = face
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ThumbsUpLandmarks returns a right hand giving a thumbs up.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := curledHand()

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	return landmarks
}

// FistLandmarks returns a right hand closed into a fist with the thumb
// folded across the fingers.
func FistLandmarks() HandLandmarks {
	landmarks := curledHand()

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.66, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.68, Z: 0.0}

	return landmarks
}

// OpenPalmLandmarks returns a right hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: Right,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}

// PeaceLandmarks returns a right hand with index and middle raised in a V,
// ring and pinky curled and the thumb folded in.
func PeaceLandmarks() HandLandmarks {
	landmarks := OpenPalmLandmarks()

	landmarks.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.62, Z: 0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.60, Z: 0.02}

	landmarks.Points[IndexTip] = Point3D{X: 0.62, Y: 0.35, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.48, Y: 0.28, Z: 0.0}

	landmarks.Points[RingDIP] = Point3D{X: 0.44, Y: 0.60, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.45, Y: 0.63, Z: -0.02}

	landmarks.Points[PinkyDIP] = Point3D{X: 0.38, Y: 0.64, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.39, Y: 0.67, Z: -0.02}

	return landmarks
}

// OKLandmarks returns a right hand making the OK sign: thumb and index tips
// touching, the other three fingers extended.
func OKLandmarks() HandLandmarks {
	landmarks := OpenPalmLandmarks()

	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.665, Y: 0.565, Z: 0.03}

	landmarks.Points[IndexPIP] = Point3D{X: 0.60, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.64, Y: 0.52, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.66, Y: 0.56, Z: 0.0}

	return landmarks
}

// curledHand returns a right hand with the four fingers curled toward the
// palm. The thumb is left for the caller to place.
func curledHand() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: Right,
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return landmarks
}

// NeutralFaceLandmarks returns a frontal face with a closed, relaxed mouth.
func NeutralFaceLandmarks() *FaceLandmarks {
	return faceMesh(0.62, 0.65, 0.44, 0.56)
}

// SmileFaceLandmarks returns a frontal face with a wide, closed mouth.
func SmileFaceLandmarks() *FaceLandmarks {
	return faceMesh(0.62, 0.65, 0.40, 0.60)
}

// SurpriseFaceLandmarks returns a frontal face with the mouth wide open.
func SurpriseFaceLandmarks() *FaceLandmarks {
	return faceMesh(0.62, 0.75, 0.45, 0.55)
}

// faceMesh builds a full-size mesh on a 0.6 tall, 0.4 wide face with the
// given lip heights and mouth corner positions.
func faceMesh(upperLipY, lowerLipY, mouthLeftX, mouthRightX float64) *FaceLandmarks {
	points := make([]Point3D, NumFaceLandmarks)
	for i := range points {
		points[i] = Point3D{X: 0.5, Y: 0.5}
	}

	points[FaceForehead] = Point3D{X: 0.5, Y: 0.2}
	points[FaceChin] = Point3D{X: 0.5, Y: 0.8}
	points[FaceCheekLeft] = Point3D{X: 0.3, Y: 0.5}
	points[FaceCheekRight] = Point3D{X: 0.7, Y: 0.5}
	points[FaceUpperLip] = Point3D{X: 0.5, Y: upperLipY}
	points[FaceLowerLip] = Point3D{X: 0.5, Y: lowerLipY}
	points[FaceMouthLeft] = Point3D{X: mouthLeftX, Y: (upperLipY + lowerLipY) / 2}
	points[FaceMouthRight] = Point3D{X: mouthRightX, Y: (upperLipY + lowerLipY) / 2}

	return &FaceLandmarks{Points: points}
}
