package detector

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestParseHandedness(t *testing.T) {
	tests := []struct {
		label string
		want  Handedness
	}{
		{"Left", Left},
		{"Right", Right},
		{"", Right},
		{"left", Right},
		{"Unknown", Right},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ParseHandedness(tt.label); got != tt.want {
				t.Errorf("ParseHandedness(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}

func TestDistance2D(t *testing.T) {
	a := Point3D{X: 0.1, Y: 0.2, Z: 5}
	b := Point3D{X: 0.4, Y: 0.6, Z: -5}

	if d := Distance2D(a, b); math.Abs(d-0.5) > epsilon {
		t.Errorf("Distance2D = %f, want 0.5 (z must be ignored)", d)
	}
}

func TestHandConnections(t *testing.T) {
	seen := make(map[int]bool)
	for _, c := range HandConnections {
		for _, idx := range c {
			if idx < 0 || idx >= NumLandmarks {
				t.Fatalf("connection %v references index outside the hand", c)
			}
			seen[idx] = true
		}
	}
	if len(seen) != NumLandmarks {
		t.Errorf("skeleton covers %d landmarks, want %d", len(seen), NumLandmarks)
	}
}

func TestFaceLandmarks_Point(t *testing.T) {
	face := NeutralFaceLandmarks()

	t.Run("returns mesh point", func(t *testing.T) {
		p, ok := face.Point(FaceChin)
		if !ok {
			t.Fatal("expected chin to be present")
		}
		if p.Y != 0.8 {
			t.Errorf("chin Y = %f, want 0.8", p.Y)
		}
	})

	t.Run("short mesh reports missing", func(t *testing.T) {
		short := &FaceLandmarks{Points: make([]Point3D, 100)}
		if _, ok := short.Point(FaceCheekRight); ok {
			t.Error("expected right cheek to be missing from a 100-point mesh")
		}
	})

	t.Run("nil face reports missing", func(t *testing.T) {
		var nilFace *FaceLandmarks
		if _, ok := nilFace.Point(FaceForehead); ok {
			t.Error("expected nil face to report missing")
		}
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("hands and face", func(t *testing.T) {
		points := `[` + repeatPoint(NumLandmarks) + `]`
		line := []byte(`{"hands":[{"points":` + points + `,"handedness":"Left","score":0.9}],"faces":[{"points":[{"x":0.1,"y":0.2,"z":0}]}]}` + "\n")

		result, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(result.Hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(result.Hands))
		}
		if result.Hands[0].Handedness != Left {
			t.Errorf("handedness = %s, want Left", result.Hands[0].Handedness)
		}
		if result.Face == nil || len(result.Face.Points) != 1 {
			t.Errorf("expected a face with one point, got %+v", result.Face)
		}
	})

	t.Run("missing handedness defaults to right", func(t *testing.T) {
		points := `[` + repeatPoint(NumLandmarks) + `]`
		line := []byte(`{"hands":[{"points":` + points + `}]}`)

		result, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if result.Hands[0].Handedness != Right {
			t.Errorf("handedness = %s, want Right", result.Hands[0].Handedness)
		}
	})

	t.Run("empty handedness keeps every hand", func(t *testing.T) {
		points := `[` + repeatPoint(NumLandmarks) + `]`
		line := []byte(`{"hands":[{"points":` + points + `,"handedness":"Left","score":0.8},{"points":` + points + `,"handedness":"","score":0}],"faces":[]}`)

		result, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(result.Hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(result.Hands))
		}
		if result.Hands[1].Handedness != Right {
			t.Errorf("handedness = %s, want Right", result.Hands[1].Handedness)
		}
		if result.Face != nil {
			t.Errorf("expected no face, got %+v", result.Face)
		}
	})

	t.Run("incomplete hand dropped", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[` + repeatPoint(5) + `],"handedness":"Right"}]}`)

		result, err := decodeResponse(line)
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if !result.Empty() {
			t.Errorf("expected empty result, got %+v", result)
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		if _, err := decodeResponse([]byte("not json")); err == nil {
			t.Error("expected error for malformed response")
		}
	})
}

func repeatPoint(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":0.5,"y":0.5,"z":0}`
	}
	return s
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty result by default", func(t *testing.T) {
		mock := NewMockDetector()

		result, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !result.Empty() {
			t.Errorf("expected empty result, got %+v", result)
		}
	})

	t.Run("returns configured hands and face", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})
		mock.SetFace(SmileFaceLandmarks())

		result, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(result.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(result.Hands))
		}
		if result.Face == nil {
			t.Error("expected a face")
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		result, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if !result.Empty() {
			t.Errorf("expected empty result when error is set, got %+v", result)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestThumbsUpLandmarks(t *testing.T) {
	landmarks := ThumbsUpLandmarks()

	if landmarks.Handedness != Right {
		t.Errorf("expected handedness Right, got %s", landmarks.Handedness)
	}

	if landmarks.Points[ThumbTip].Y >= landmarks.Points[ThumbIP].Y {
		t.Error("thumb tip should be above thumb IP (lower Y value)")
	}

	tips := []int{IndexTip, MiddleTip, RingTip, PinkyTip}
	for _, tip := range tips {
		if landmarks.Points[tip].Y <= landmarks.Points[tip-2].Y {
			t.Errorf("fingertip %d should be below its PIP joint", tip)
		}
	}
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	tips := []int{IndexTip, MiddleTip, RingTip, PinkyTip}
	for _, tip := range tips {
		if landmarks.Points[tip].Y >= landmarks.Points[tip-2].Y {
			t.Errorf("fingertip %d should be above its PIP joint", tip)
		}
	}

	// Fingers ordered right to left: index, middle, ring, pinky.
	if landmarks.Points[PinkyMCP].X >= landmarks.Points[RingMCP].X {
		t.Error("pinky should be to the left of ring finger")
	}
	if landmarks.Points[MiddleMCP].X >= landmarks.Points[IndexMCP].X {
		t.Error("middle should be to the left of index finger")
	}
}

func TestOKLandmarks(t *testing.T) {
	landmarks := OKLandmarks()

	pinch := Distance2D(landmarks.Points[ThumbTip], landmarks.Points[IndexTip])
	scale := Distance2D(landmarks.Points[Wrist], landmarks.Points[MiddleMCP])
	if pinch >= 0.15*scale {
		t.Errorf("thumb and index should touch: pinch %f, scale %f", pinch, scale)
	}
}
