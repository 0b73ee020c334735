// Package playback owns the global timeline: the single playback position,
// the play/pause/seek state machine, and the fan-out of every position
// change to all camera tracks.
package playback

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/logger"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/track"
)

var (
	// ErrNoPlayableCamera means no camera overlaps the global timeline;
	// the session cannot start.
	ErrNoPlayableCamera = errors.New("playback: no camera overlaps the global timeline")

	// ErrSuperseded is returned by SeekTo when a later seek landed before
	// this one's fan-out completed. The stale result is discarded.
	ErrSuperseded = errors.New("playback: seek superseded by a later seek")

	// ErrAlreadyPlaying is returned by Play while playing or seeking.
	ErrAlreadyPlaying = errors.New("playback: already playing")

	// ErrNotPlaying is returned by Pause outside the Playing state.
	ErrNotPlaying = errors.New("playback: not playing")
)

// Consumer receives every published aggregate. Publishes happen in strictly
// increasing position order while playing. The consumer runs on the
// controller's goroutine and must not call back into the Controller.
type Consumer func(model.Aggregate)

// Controller drives all camera tracks in lockstep on one global timeline.
//
// Lifecycle: NewController → Play/Pause/SeekTo/StepOffset → Stop.
// All methods are safe for concurrent use.
type Controller struct {
	session  string
	tracks   []*track.Track
	interval time.Duration
	consumer Consumer
	log      *logger.Logger

	// fanMu serializes fan-out rounds so each track sees at most one
	// outstanding seek at a time (the join barrier).
	fanMu sync.Mutex

	mu       sync.Mutex
	position int
	length   int
	state    model.PlaybackState
	kind     model.Kind
	// gen is bumped by every seek, pause and stop; a fan-out started under
	// an older gen is discarded instead of published (last-seek-wins).
	gen    uint64
	stopCh chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewController builds a session over the given tracks. The global length is
// the minimum effective length over cameras that have one; cameras with
// effective length 0 stay in every aggregate but never bound the timeline.
// Fails with ErrNoPlayableCamera when that minimum does not exist.
func NewController(tracks []*track.Track, fps int, consumer Consumer, log *logger.Logger) (*Controller, error) {
	if fps <= 0 {
		fps = 10
	}

	sorted := make([]*track.Track, len(tracks))
	copy(sorted, tracks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Camera() < sorted[j].Camera() })

	length := 0
	for _, tr := range sorted {
		n := tr.EffectiveLength()
		if n <= 0 {
			continue
		}
		if length == 0 || n < length {
			length = n
		}
	}
	if length <= 0 {
		return nil, ErrNoPlayableCamera
	}

	c := &Controller{
		session:  uuid.NewString(),
		tracks:   sorted,
		interval: time.Second / time.Duration(fps),
		consumer: consumer,
		log:      log,
		length:   length,
		state:    model.StateStopped,
		kind:     model.KindGroundTruth,
	}

	if c.log != nil {
		c.log.Info("Session %s: %d cameras, global length %d frames", c.session, len(sorted), length)
	}
	return c, nil
}

// Session returns the session id.
func (c *Controller) Session() string {
	return c.session
}

// Length returns the global timeline length in frames.
func (c *Controller) Length() int {
	return c.length
}

// Position returns the current global position.
func (c *Controller) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// State returns the current playback state.
func (c *Controller) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cameras returns the camera ids in aggregate order.
func (c *Controller) Cameras() []string {
	ids := make([]string, len(c.tracks))
	for i, tr := range c.tracks {
		ids[i] = tr.Camera()
	}
	return ids
}

// SeekTo jumps the global timeline to position, valid in any state. The
// position is clamped into [0, length-1], fanned out to every track, and
// the joined aggregate is published and returned; afterwards the state is
// Paused. A SeekTo overtaken by a later seek returns ErrSuperseded and
// publishes nothing.
func (c *Controller) SeekTo(position int, kind model.Kind) (model.Aggregate, error) {
	if !kind.Valid() {
		kind = model.KindGroundTruth
	}

	c.mu.Lock()
	if position < 0 {
		position = 0
	}
	if position > c.length-1 {
		position = c.length - 1
	}
	c.position = position
	c.kind = kind
	c.state = model.StateSeeking
	c.gen++
	gen := c.gen
	// A seek interrupts playback; halt the tick loop like Pause does so a
	// later Play never races a leftover loop.
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.mu.Unlock()

	agg := c.fanOut(position, kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return model.Aggregate{}, ErrSuperseded
	}
	if c.state == model.StateSeeking {
		c.state = model.StatePaused
	}
	agg.State = c.state
	c.publishLocked(agg)
	return agg, nil
}

// StepOffset moves the timeline by delta frames (frame stepping).
func (c *Controller) StepOffset(delta int, kind model.Kind) (model.Aggregate, error) {
	c.mu.Lock()
	position := c.position + delta
	c.mu.Unlock()
	return c.SeekTo(position, kind)
}

// Play starts tick-driven advancement from the current position, valid from
// Stopped or Paused. Each tick fans out one position and publishes the
// aggregate to the consumer; reaching the end of the timeline auto-pauses.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == model.StatePlaying || c.state == model.StateSeeking {
		return ErrAlreadyPlaying
	}

	c.state = model.StatePlaying
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.playLoop(c.stopCh)
	return nil
}

// Pause halts playback, valid from Playing only. The position is unchanged.
// A tick already in flight when Pause lands is discarded, not published.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != model.StatePlaying {
		return ErrNotPlaying
	}

	c.state = model.StatePaused
	c.gen++
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	return nil
}

// Stop tears the session down: halts playback, waits for the play loop to
// exit, and closes every track's decoder. The controller is unusable after.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = model.StateStopped
	c.gen++
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.mu.Unlock()

	c.wg.Wait()

	var firstErr error
	for _, tr := range c.tracks {
		if err := tr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// playLoop publishes the current position immediately, then once per tick
// interval until pause, seek, stop, or the end of the timeline.
func (c *Controller) playLoop(stop chan struct{}) {
	defer c.wg.Done()

	if !c.tick() {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.tick() {
				return
			}
		}
	}
}

// tick fans out the current position and, if still current when the round
// joins, publishes it and advances. Returns false when the loop must exit.
func (c *Controller) tick() bool {
	c.mu.Lock()
	if c.state != model.StatePlaying {
		c.mu.Unlock()
		return false
	}
	position := c.position
	kind := c.kind
	gen := c.gen
	c.mu.Unlock()

	agg := c.fanOut(position, kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != model.StatePlaying {
		// A seek, pause or stop landed while this round was in flight.
		return false
	}

	if position >= c.length-1 {
		c.state = model.StatePaused
	} else {
		c.position = position + 1
	}
	agg.State = c.state
	c.publishLocked(agg)
	return c.state == model.StatePlaying
}

// fanOut broadcasts one global position to every track concurrently and
// joins all results before returning. Partial aggregates are never built: a
// per-track decode failure is logged and leaves that slot stale while the
// remaining cameras stay fresh.
func (c *Controller) fanOut(position int, kind model.Kind) model.Aggregate {
	c.fanMu.Lock()
	defer c.fanMu.Unlock()

	frames := make([]model.FrameResult, len(c.tracks))
	var wg sync.WaitGroup
	for i, tr := range c.tracks {
		wg.Add(1)
		go func(i int, tr *track.Track) {
			defer wg.Done()
			res, err := tr.Seek(position, kind)
			if err != nil && c.log != nil {
				c.log.Warning("Camera %s: decode failed at global %d: %v", tr.Camera(), position, err)
			}
			frames[i] = res
		}(i, tr)
	}
	wg.Wait()

	return model.Aggregate{
		Session:  c.session,
		Position: position,
		Length:   c.length,
		Frames:   frames,
	}
}

func (c *Controller) publishLocked(agg model.Aggregate) {
	if c.consumer != nil {
		c.consumer(agg)
	}
}
