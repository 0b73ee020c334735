package model

// Kind identifies which annotation source a record came from.
type Kind string

const (
	KindGroundTruth Kind = "gt"
	KindDetection   Kind = "det"
)

// Valid reports whether k is one of the known annotation kinds.
func (k Kind) Valid() bool {
	return k == KindGroundTruth || k == KindDetection
}

// AnnotationRecord is a single bounding box attached to one local frame
// of one camera. Frame indices are 0-based (frame 0 = first decodable frame).
type AnnotationRecord struct {
	Frame      int     `json:"frame"`
	BoxID      int     `json:"box_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence,omitempty"`
}
