package geo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReplaySource plays back a recorded track of "lat,lon" lines. Lines
// starting with # are ignored. A record reading "error,<code>" injects a
// position error. Playback loops until the watch is cancelled.
type ReplaySource struct {
	readings []Reading
	interval time.Duration
}

// LoadReplay reads a track file.
func LoadReplay(path string, interval time.Duration) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()
	return ParseReplay(f, interval)
}

func ParseReplay(r io.Reader, interval time.Duration) (*ReplaySource, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var readings []Reading
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("replay line %d: want 2 fields, got %d", line, len(rec))
		}
		if strings.EqualFold(rec[0], "error") {
			readings = append(readings, Reading{Err: &Error{Code: Code(strings.TrimSpace(rec[1]))}})
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("replay line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("replay line %d: longitude: %w", line, err)
		}
		readings = append(readings, Reading{Fix: Fix{Lat: lat, Lon: lon}})
	}
	if len(readings) == 0 {
		return nil, errors.New("replay file has no positions")
	}
	return &ReplaySource{readings: readings, interval: interval}, nil
}

// Current returns the first recorded reading.
func (s *ReplaySource) Current(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, Classify(err)
	}
	r := s.readings[0]
	if r.Err != nil {
		return Fix{}, r.Err
	}
	r.Fix.At = time.Now()
	return r.Fix, nil
}

func (s *ReplaySource) Watch(ctx context.Context) <-chan Reading {
	ch := make(chan Reading)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(s.readings) {
			r := s.readings[i]
			if r.Err == nil {
				r.Fix.At = time.Now()
			}
			select {
			case ch <- r:
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
