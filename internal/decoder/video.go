package decoder

import (
	"fmt"

	"gocv.io/x/gocv"
)

// videoFile decodes frames from a video file through gocv.VideoCapture.
type videoFile struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	length  int
	next    int // local index the capture will read next; -1 when unknown
}

// Open opens a video file for frame-accurate seeking and decoding.
func Open(path string) (Decoder, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	return &videoFile{
		capture: capture,
		mat:     gocv.NewMat(),
		length:  int(capture.Get(gocv.VideoCaptureFrameCount)),
		next:    0,
	}, nil
}

// Length returns the frame count reported by the container.
func (v *videoFile) Length() int {
	return v.length
}

// SeekAndDecode decodes the frame at localIndex as JPEG bytes. Sequential
// reads skip the seek: when localIndex is exactly the frame the capture
// would read next, a plain Read suffices, which keeps steady playback at
// frame rate without redundant repositioning.
func (v *videoFile) SeekAndDecode(localIndex int) ([]byte, error) {
	if localIndex != v.next {
		v.capture.Set(gocv.VideoCapturePosFrames, float64(localIndex))
	}

	if ok := v.capture.Read(&v.mat); !ok || v.mat.Empty() {
		// Capture position is unknown after a failed read.
		v.next = -1
		return nil, fmt.Errorf("frame %d: %w", localIndex, ErrDecodeFailed)
	}
	v.next = localIndex + 1

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, v.mat)
	if err != nil {
		return nil, fmt.Errorf("frame %d: failed to encode: %w", localIndex, err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Close releases the capture and the scratch Mat.
func (v *videoFile) Close() error {
	v.mat.Close()
	return v.capture.Close()
}
