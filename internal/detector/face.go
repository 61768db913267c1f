package detector

// Face mesh indices consumed by the expression classifier.
const (
	FaceForehead   = 10
	FaceUpperLip   = 13
	FaceLowerLip   = 14
	FaceMouthLeft  = 61
	FaceChin       = 152
	FaceCheekLeft  = 234
	FaceMouthRight = 291
	FaceCheekRight = 454

	// NumFaceLandmarks is the size of the MediaPipe face mesh without iris refinement.
	NumFaceLandmarks = 468
)

// FaceLandmarks holds the face mesh points for one detected face.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Point returns the landmark at index i, or false if the mesh is too short.
func (f *FaceLandmarks) Point(i int) (Point3D, bool) {
	if f == nil || i < 0 || i >= len(f.Points) {
		return Point3D{}, false
	}
	return f.Points[i], true
}
