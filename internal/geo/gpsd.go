package geo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const (
	gpsdWatchCommand = `?WATCH={"enable":true,"json":true};`
	gpsdDialTimeout  = 5 * time.Second
	gpsdRetryDelay   = 5 * time.Second
)

var errNoFix = errors.New("no fix")

// tpv is the gpsd time-position-velocity report. Mode 2 is a 2D fix and
// mode 3 a 3D fix; anything lower carries no usable position.
type tpv struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Time  string  `json:"time"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	EPH   float64 `json:"eph"`
}

// GPSDSource reads positions from a gpsd daemon over its JSON socket
// protocol.
type GPSDSource struct {
	addr   string
	logger *slog.Logger
	dialer net.Dialer
}

func NewGPSDSource(addr string, logger *slog.Logger) *GPSDSource {
	return &GPSDSource{
		addr:   addr,
		logger: logger,
		dialer: net.Dialer{Timeout: gpsdDialTimeout},
	}
}

func (s *GPSDSource) connect(ctx context.Context) (net.Conn, *bufio.Scanner, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		ge := Classify(err)
		if ge.Code == Unknown {
			ge = &Error{Code: PositionUnavailable, Err: err}
		}
		return nil, nil, ge
	}
	if _, err := conn.Write([]byte(gpsdWatchCommand)); err != nil {
		conn.Close()
		return nil, nil, &Error{Code: PositionUnavailable, Err: err}
	}
	return conn, bufio.NewScanner(conn), nil
}

// next blocks until a TPV report arrives. A report without a fix is an
// unavailable error.
func next(sc *bufio.Scanner) (Fix, error) {
	for sc.Scan() {
		var report tpv
		if err := json.Unmarshal(sc.Bytes(), &report); err != nil || report.Class != "TPV" {
			continue
		}
		if report.Mode < 2 {
			return Fix{}, &Error{Code: PositionUnavailable, Err: errNoFix}
		}
		at, err := time.Parse(time.RFC3339Nano, report.Time)
		if err != nil {
			at = time.Now()
		}
		return Fix{Lat: report.Lat, Lon: report.Lon, Accuracy: report.EPH, At: at}, nil
	}
	if err := sc.Err(); err != nil {
		return Fix{}, Classify(err)
	}
	return Fix{}, &Error{Code: PositionUnavailable, Err: errors.New("gpsd closed the connection")}
}

// Current waits for the first fix. A report without a fix is skipped
// until ctx expires.
func (s *GPSDSource) Current(ctx context.Context) (Fix, error) {
	conn, sc, err := s.connect(ctx)
	if err != nil {
		return Fix{}, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		fix, err := next(sc)
		if err == nil {
			return fix, nil
		}
		if errors.Is(err, errNoFix) {
			continue
		}
		if ctx.Err() != nil {
			return Fix{}, &Error{Code: Timeout, Err: ctx.Err()}
		}
		return Fix{}, err
	}
}

// Watch streams every TPV report, reconnecting after connection loss.
func (s *GPSDSource) Watch(ctx context.Context) <-chan Reading {
	ch := make(chan Reading)
	go func() {
		defer close(ch)
		for {
			err := s.stream(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("gpsd stream ended", "addr", s.addr, "error", err)
			select {
			case ch <- Reading{Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-time.After(gpsdRetryDelay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *GPSDSource) stream(ctx context.Context, ch chan<- Reading) error {
	conn, sc, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		fix, err := next(sc)
		if err != nil && !errors.Is(err, errNoFix) {
			return fmt.Errorf("read gpsd: %w", err)
		}
		select {
		case ch <- Reading{Fix: fix, Err: err}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
