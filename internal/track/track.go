// Package track binds one camera's decoder, timeline offset and annotation
// stores, and answers "give me the frame at global position G".
package track

import (
	"github.com/Eudaldz/aicitychallenge-viewer/internal/annotation"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/decoder"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
)

// Track owns its decoder exclusively; annotation stores are shared,
// read-only references. A track carries no state machine of its own beyond
// the last successfully decoded frame, kept as the error-recovery fallback
// and as a repeat-seek cache.
//
// Not safe for concurrent use: the controller serializes fan-out rounds so
// each track sees one outstanding seek at a time.
type Track struct {
	camera string
	dec    decoder.Decoder
	offset int
	length int
	stores map[model.Kind]*annotation.Store

	lastLocal int
	lastFrame []byte
}

// New creates a track. stores maps annotation kinds to their loaded stores;
// missing kinds behave as empty stores.
func New(camera string, dec decoder.Decoder, offset int, stores map[model.Kind]*annotation.Store) *Track {
	return &Track{
		camera:    camera,
		dec:       dec,
		offset:    offset,
		length:    dec.Length(),
		stores:    stores,
		lastLocal: -1,
	}
}

// Camera returns the camera id.
func (t *Track) Camera() string {
	return t.camera
}

// Offset returns the camera's frame offset on the global timeline.
func (t *Track) Offset() int {
	return t.offset
}

// Length returns the camera's stream length in frames.
func (t *Track) Length() int {
	return t.length
}

// EffectiveLength is the number of global positions this camera can serve
// before running past its stream end, floored at 0. Cameras with effective
// length 0 never contribute to the global length.
func (t *Track) EffectiveLength() int {
	n := t.length - t.offset
	if n < 0 {
		return 0
	}
	return n
}

// Seek maps a global position to this camera's local frame and returns the
// decoded frame joined with its annotations for the requested kind.
//
// local = global + offset, clamped into [0, length-1] with BeforeStart /
// AfterEnd flags set exactly when the unclamped value falls outside. A
// decode failure is reported through the returned error but still yields a
// usable result: the last good frame, its annotations and its local index,
// with Stale set (held-frame-on-error). Repeating the previous local index
// serves the cached bytes without re-decoding.
func (t *Track) Seek(global int, kind model.Kind) (model.FrameResult, error) {
	res := model.FrameResult{Camera: t.camera, LocalIndex: -1}

	if t.length <= 0 {
		res.AfterEnd = true
		res.Stale = true
		return res, decoder.ErrDecodeFailed
	}

	local := global + t.offset
	if local < 0 {
		local = 0
		res.BeforeStart = true
	} else if local >= t.length {
		local = t.length - 1
		res.AfterEnd = true
	}

	if local == t.lastLocal && t.lastFrame != nil {
		res.Image = t.lastFrame
		res.LocalIndex = local
		res.Annotations = t.lookup(kind, local)
		return res, nil
	}

	data, err := t.dec.SeekAndDecode(local)
	if err != nil {
		res.Stale = true
		res.Image = t.lastFrame
		res.LocalIndex = t.lastLocal
		if t.lastLocal >= 0 {
			res.Annotations = t.lookup(kind, t.lastLocal)
		}
		return res, err
	}

	t.lastLocal = local
	t.lastFrame = data

	res.Image = data
	res.LocalIndex = local
	res.Annotations = t.lookup(kind, local)
	return res, nil
}

func (t *Track) lookup(kind model.Kind, local int) []model.AnnotationRecord {
	store := t.stores[kind]
	if store == nil {
		return nil
	}
	return store.Lookup(local)
}

// Close releases the decoder.
func (t *Track) Close() error {
	return t.dec.Close()
}
