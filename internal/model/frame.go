package model

// FrameResult is the joined answer for one camera at one global position:
// the decoded frame plus the annotation records for its local index.
//
// Image holds JPEG bytes; encoding/json renders it as base64, which is the
// shape the viewer page consumes. A nil Image with Stale set means the
// camera has not decoded any frame yet.
type FrameResult struct {
	Camera      string             `json:"camera"`
	Image       []byte             `json:"image,omitempty"`
	LocalIndex  int                `json:"local"`
	Annotations []AnnotationRecord `json:"annotations,omitempty"`
	BeforeStart bool               `json:"before_start,omitempty"`
	AfterEnd    bool               `json:"after_end,omitempty"`
	Stale       bool               `json:"stale,omitempty"`
}

// Aggregate is one complete fan-out round: every camera's FrameResult for a
// single global position. Frames are ordered by camera id.
type Aggregate struct {
	Session  string        `json:"session"`
	Position int           `json:"position"`
	Length   int           `json:"length"`
	State    PlaybackState `json:"state"`
	Frames   []FrameResult `json:"frames"`
}
