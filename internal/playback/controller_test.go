package playback

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/decoder"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
	"github.com/Eudaldz/aicitychallenge-viewer/internal/track"
)

type fakeDecoder struct {
	length int
	failAt map[int]bool
}

func (d *fakeDecoder) Length() int { return d.length }

func (d *fakeDecoder) SeekAndDecode(localIndex int) ([]byte, error) {
	if d.failAt[localIndex] {
		return nil, fmt.Errorf("frame %d: %w", localIndex, decoder.ErrDecodeFailed)
	}
	return []byte(fmt.Sprintf("frame-%d", localIndex)), nil
}

func (d *fakeDecoder) Close() error { return nil }

// gatedDecoder blocks its first decode until released, letting tests land a
// competing operation while a fan-out round is deterministically in flight.
type gatedDecoder struct {
	fakeDecoder
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *gatedDecoder) SeekAndDecode(localIndex int) ([]byte, error) {
	d.once.Do(func() {
		d.entered <- struct{}{}
		<-d.release
	})
	return d.fakeDecoder.SeekAndDecode(localIndex)
}

// collector accumulates published aggregates.
type collector struct {
	mu   sync.Mutex
	aggs []model.Aggregate
}

func (c *collector) consume(agg model.Aggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aggs = append(c.aggs, agg)
}

func (c *collector) published() []model.Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Aggregate, len(c.aggs))
	copy(out, c.aggs)
	return out
}

func newTrack(camera string, length, offset int) *track.Track {
	return track.New(camera, &fakeDecoder{length: length}, offset, nil)
}

func waitForState(t *testing.T, c *Controller, state model.PlaybackState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == state {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current: %s)", state, c.State())
}

func TestGlobalLength_MinOverEffectiveLengths(t *testing.T) {
	tracks := []*track.Track{
		newTrack("c001", 100, 10), // effective 90
		newTrack("c002", 80, 0),   // effective 80
	}

	c, err := NewController(tracks, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if c.Length() != 80 {
		t.Errorf("Length() = %d, expected 80", c.Length())
	}
}

func TestNewController_NoPlayableCamera(t *testing.T) {
	tracks := []*track.Track{
		newTrack("c001", 5, 10), // effective 0
	}

	if _, err := NewController(tracks, 10, nil, nil); !errors.Is(err, ErrNoPlayableCamera) {
		t.Errorf("NewController error = %v, expected ErrNoPlayableCamera", err)
	}
}

func TestSeekTo_DisjointCameraStaysInAggregate(t *testing.T) {
	tracks := []*track.Track{
		newTrack("c001", 50, 0),
		newTrack("c002", 5, 10), // never overlaps the timeline
	}

	c, err := NewController(tracks, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if c.Length() != 50 {
		t.Errorf("Length() = %d, expected 50 (dead camera excluded)", c.Length())
	}

	agg, err := c.SeekTo(3, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	if len(agg.Frames) != 2 {
		t.Fatalf("aggregate has %d frames, expected 2", len(agg.Frames))
	}
	if agg.Frames[0].Camera != "c001" || agg.Frames[1].Camera != "c002" {
		t.Errorf("frames out of camera order: %s, %s", agg.Frames[0].Camera, agg.Frames[1].Camera)
	}
	if !agg.Frames[1].AfterEnd {
		t.Error("dead camera should be flagged out of range")
	}
}

func TestSeekTo_ClampsAndPauses(t *testing.T) {
	c, err := NewController([]*track.Track{newTrack("c001", 50, 0)}, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	agg, err := c.SeekTo(1000, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	if agg.Position != 49 {
		t.Errorf("Position = %d, expected 49 (clamped)", agg.Position)
	}
	if c.State() != model.StatePaused {
		t.Errorf("State = %s, expected paused after seek", c.State())
	}

	agg, err = c.SeekTo(-5, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	if agg.Position != 0 {
		t.Errorf("Position = %d, expected 0 (clamped)", agg.Position)
	}
}

func TestSeekTo_Idempotent(t *testing.T) {
	c, err := NewController([]*track.Track{newTrack("c001", 50, 0), newTrack("c002", 60, 5)}, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	first, err := c.SeekTo(7, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	second, err := c.SeekTo(7, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}

	for i := range first.Frames {
		if !bytes.Equal(first.Frames[i].Image, second.Frames[i].Image) {
			t.Errorf("camera %s: repeated seek returned different bytes", first.Frames[i].Camera)
		}
		if first.Frames[i].LocalIndex != second.Frames[i].LocalIndex {
			t.Errorf("camera %s: repeated seek returned different local index", first.Frames[i].Camera)
		}
	}
}

func TestPlay_MonotonicUntilAutoPause(t *testing.T) {
	tracks := []*track.Track{
		newTrack("c001", 50, 0), // effective 50
		newTrack("c002", 60, 0), // effective 60
		newTrack("c003", 70, 0), // effective 70
	}
	col := &collector{}

	c, err := NewController(tracks, 1000, col.consume, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitForState(t, c, model.StatePaused)

	aggs := col.published()
	if len(aggs) != 50 {
		t.Fatalf("published %d aggregates, expected exactly 50", len(aggs))
	}
	for i, agg := range aggs {
		if agg.Position != i {
			t.Fatalf("aggregate %d has position %d, expected strictly increasing from 0", i, agg.Position)
		}
	}
	if aggs[len(aggs)-1].State != model.StatePaused {
		t.Errorf("final aggregate state = %s, expected paused", aggs[len(aggs)-1].State)
	}
	if c.Position() != 49 {
		t.Errorf("Position = %d, expected 49 after auto-pause", c.Position())
	}
}

func TestPlay_WhilePlayingFails(t *testing.T) {
	col := &collector{}
	c, err := NewController([]*track.Track{newTrack("c001", 1000, 0)}, 100, col.consume, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := c.Play(); !errors.Is(err, ErrAlreadyPlaying) {
		t.Errorf("second Play error = %v, expected ErrAlreadyPlaying", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if err := c.Pause(); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("second Pause error = %v, expected ErrNotPlaying", err)
	}
}

func TestSeekTo_LastSeekWins(t *testing.T) {
	gate := &gatedDecoder{
		fakeDecoder: fakeDecoder{length: 50},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	col := &collector{}

	c, err := NewController([]*track.Track{track.New("c001", gate, 0, nil)}, 10, col.consume, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.SeekTo(5, model.KindGroundTruth)
		firstDone <- err
	}()

	// Wait until the first seek's fan-out is in flight, then overtake it.
	<-gate.entered

	secondDone := make(chan model.Aggregate, 1)
	go func() {
		agg, err := c.SeekTo(9, model.KindGroundTruth)
		if err != nil {
			t.Errorf("second SeekTo failed: %v", err)
		}
		secondDone <- agg
	}()

	// The second seek has claimed the timeline once the position reads 9;
	// only then let the first round finish.
	deadline := time.Now().Add(5 * time.Second)
	for c.Position() != 9 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for second seek to claim position")
		}
		time.Sleep(time.Millisecond)
	}
	close(gate.release)

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first SeekTo error = %v, expected ErrSuperseded", err)
	}
	agg := <-secondDone
	if agg.Position != 9 {
		t.Errorf("winning aggregate position = %d, expected 9", agg.Position)
	}

	published := col.published()
	if len(published) != 1 {
		t.Fatalf("published %d aggregates, expected exactly 1", len(published))
	}
	if published[0].Position != 9 {
		t.Errorf("published position = %d, expected 9", published[0].Position)
	}
}

func TestPause_DiscardsInflightTick(t *testing.T) {
	gate := &gatedDecoder{
		fakeDecoder: fakeDecoder{length: 50},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	col := &collector{}

	c, err := NewController([]*track.Track{track.New("c001", gate, 0, nil)}, 10, col.consume, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	// The first tick is now mid-decode; pause before it can publish.
	<-gate.entered
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	close(gate.release)

	time.Sleep(50 * time.Millisecond)
	if got := len(col.published()); got != 0 {
		t.Errorf("published %d aggregates after pause, expected 0", got)
	}
	if c.State() != model.StatePaused {
		t.Errorf("State = %s, expected paused", c.State())
	}
}

func TestFanOut_StaleSlotDoesNotAffectOthers(t *testing.T) {
	healthy := newTrack("c001", 50, 0)
	failing := track.New("c002", &fakeDecoder{length: 50, failAt: map[int]bool{12: true}}, 0, nil)

	c, err := NewController([]*track.Track{healthy, failing}, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if _, err := c.SeekTo(11, model.KindGroundTruth); err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	agg, err := c.SeekTo(12, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}

	fresh := agg.Frames[0]
	stale := agg.Frames[1]
	if fresh.Stale || fresh.LocalIndex != 12 {
		t.Errorf("healthy camera = %+v, expected fresh frame 12", fresh)
	}
	if !stale.Stale {
		t.Error("failing camera should be marked stale")
	}
	if stale.LocalIndex != 11 {
		t.Errorf("stale LocalIndex = %d, expected 11 (held frame)", stale.LocalIndex)
	}
	if !bytes.Equal(stale.Image, []byte("frame-11")) {
		t.Errorf("stale image = %q, expected held frame-11", stale.Image)
	}
}

func TestStepOffset(t *testing.T) {
	c, err := NewController([]*track.Track{newTrack("c001", 50, 0)}, 10, nil, nil)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	defer c.Stop()

	if _, err := c.SeekTo(10, model.KindGroundTruth); err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}

	agg, err := c.StepOffset(1, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("StepOffset failed: %v", err)
	}
	if agg.Position != 11 {
		t.Errorf("Position = %d, expected 11", agg.Position)
	}

	agg, err = c.StepOffset(-3, model.KindGroundTruth)
	if err != nil {
		t.Fatalf("StepOffset failed: %v", err)
	}
	if agg.Position != 8 {
		t.Errorf("Position = %d, expected 8", agg.Position)
	}
}
