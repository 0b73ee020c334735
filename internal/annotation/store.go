// Package annotation loads and indexes per-frame bounding-box records for
// one camera, from MOT-style text files or from a SQLite database.
package annotation

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
)

// Store maps local frame indices to the bounding boxes recorded for them.
// Read-only after load; safe to share across goroutines without locking.
type Store struct {
	byFrame map[int][]model.AnnotationRecord
	count   int
	skipped int
}

// Empty returns a store with no records.
func Empty() *Store {
	return &Store{byFrame: make(map[int][]model.AnnotationRecord)}
}

// Load parses a MOT-style annotation file with one record per line:
//
//	frame,boxId,x,y,width,height[,confidence,...]
//
// Frame numbers on disk are 1-indexed (MOT convention); they are normalized
// to 0-indexed here, once, so that frame 0 is the first decodable frame.
// Extra trailing fields are ignored. Lines that fail to parse, or records
// with negative width/height, are dropped and counted via Skipped.
// A missing file yields an empty store, not an error: absent annotation
// coverage is a normal condition.
func Load(path string) (*Store, error) {
	s := Empty()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			s.skipped++
			continue
		}
		s.add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	return s, nil
}

// parseLine converts one text record into an AnnotationRecord, normalizing
// the frame number to 0-indexed.
func parseLine(line string) (model.AnnotationRecord, bool) {
	var rec model.AnnotationRecord

	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return rec, false
	}

	frame, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || frame < 1 {
		return rec, false
	}
	boxID, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return rec, false
	}

	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[2+i]), 64)
		if err != nil {
			return rec, false
		}
		coords[i] = v
	}
	if coords[2] < 0 || coords[3] < 0 {
		return rec, false
	}

	rec = model.AnnotationRecord{
		Frame:  frame - 1,
		BoxID:  boxID,
		X:      coords[0],
		Y:      coords[1],
		Width:  coords[2],
		Height: coords[3],
	}
	if len(parts) >= 7 {
		if conf, err := strconv.ParseFloat(strings.TrimSpace(parts[6]), 64); err == nil {
			rec.Confidence = conf
		}
	}
	return rec, true
}

func (s *Store) add(rec model.AnnotationRecord) {
	s.byFrame[rec.Frame] = append(s.byFrame[rec.Frame], rec)
	s.count++
}

// Lookup returns the records for a local frame index in load order.
// A frame with no records yields nil, never an error.
func (s *Store) Lookup(local int) []model.AnnotationRecord {
	return s.byFrame[local]
}

// Records returns every loaded record ordered by frame, then load order.
func (s *Store) Records() []model.AnnotationRecord {
	frames := make([]int, 0, len(s.byFrame))
	for f := range s.byFrame {
		frames = append(frames, f)
	}
	sort.Ints(frames)

	out := make([]model.AnnotationRecord, 0, s.count)
	for _, f := range frames {
		out = append(out, s.byFrame[f]...)
	}
	return out
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return s.count
}

// Skipped returns the count of malformed lines dropped during Load.
func (s *Store) Skipped() int {
	return s.skipped
}
