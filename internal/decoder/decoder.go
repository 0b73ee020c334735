// Package decoder wraps a single video source behind a seek-and-decode
// primitive. The production implementation sits on gocv (OpenCV); tests
// substitute fakes through the Decoder interface.
package decoder

import "errors"

// ErrDecodeFailed reports that the source could not produce the requested
// frame. Callers fall back to their last successfully decoded frame.
var ErrDecodeFailed = errors.New("decoder: decode failed")

// Decoder is the black-box decode primitive for one video source.
// Implementations are not safe for concurrent use; each decoder is owned
// exclusively by one camera track.
type Decoder interface {
	// Length returns the total number of frames in the source.
	Length() int

	// SeekAndDecode positions the source at localIndex and decodes that
	// frame, returning it as JPEG bytes. Failures wrap ErrDecodeFailed.
	SeekAndDecode(localIndex int) ([]byte, error)

	// Close releases the underlying source.
	Close() error
}

// OpenFunc opens a decoder for a video file path.
type OpenFunc func(path string) (Decoder, error)
