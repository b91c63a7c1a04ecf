package geo

import (
	"context"
	"time"
)

// StaticSource reports a fixed position. A watch emits it once.
type StaticSource struct {
	Lat, Lon float64
	now      func() time.Time
}

func NewStaticSource(lat, lon float64) *StaticSource {
	return &StaticSource{Lat: lat, Lon: lon, now: time.Now}
}

func (s *StaticSource) fix() Fix {
	return Fix{Lat: s.Lat, Lon: s.Lon, At: s.now()}
}

func (s *StaticSource) Current(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, Classify(err)
	}
	return s.fix(), nil
}

func (s *StaticSource) Watch(ctx context.Context) <-chan Reading {
	ch := make(chan Reading, 1)
	ch <- Reading{Fix: s.fix()}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
