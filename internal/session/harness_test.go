package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/fieldtrack/internal/geo"
	"github.com/dukerupert/fieldtrack/internal/model"
	"github.com/dukerupert/fieldtrack/internal/store"
)

type fakeTimer struct {
	at   time.Time
	seq  int
	f    func()
	done bool
}

func (t *fakeTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}

// fakeClock fires timers in deadline order during Advance, including timers
// scheduled by the callbacks it runs.
type fakeClock struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), seq: c.seq, f: f}
	c.seq++
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		idx := -1
		for i, t := range c.timers {
			if t.done || t.at.After(end) {
				continue
			}
			if idx < 0 || t.at.Before(c.timers[idx].at) || (t.at.Equal(c.timers[idx].at) && t.seq < c.timers[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		next := c.timers[idx]
		c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
		next.done = true
		c.now = next.at
		next.f()
	}
	c.now = end

	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
}

type fakeBackend struct {
	mu             sync.Mutex
	attendance     []model.AttendanceRequest
	attendanceErrs []error
	logouts        []model.LogoutRequest
	logoutErr      error
	beacons        []model.LogoutRequest
}

func (b *fakeBackend) LogAttendance(_ context.Context, req model.AttendanceRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attendance = append(b.attendance, req)
	if len(b.attendanceErrs) > 0 {
		err := b.attendanceErrs[0]
		b.attendanceErrs = b.attendanceErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return "rec-1", nil
}

func (b *fakeBackend) LogoutMarketer(_ context.Context, req model.LogoutRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logouts = append(b.logouts, req)
	return b.logoutErr
}

func (b *fakeBackend) LogoutBeacon(req model.LogoutRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beacons = append(b.beacons, req)
	return nil
}

func (b *fakeBackend) counts() (attendance, logouts, beacons int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attendance), len(b.logouts), len(b.beacons)
}

// fakeSource answers Current with a fixed result. Its watch stream is
// closed at once; tests push watch readings through Position.
type fakeSource struct {
	fix geo.Fix
	err error
}

func (s *fakeSource) Current(context.Context) (geo.Fix, error) {
	return s.fix, s.err
}

func (s *fakeSource) Watch(context.Context) <-chan geo.Reading {
	ch := make(chan geo.Reading)
	close(ch)
	return ch
}

type fakeNet struct {
	mu     sync.Mutex
	online bool
}

func (n *fakeNet) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *fakeNet) set(online bool) {
	n.mu.Lock()
	n.online = online
	n.mu.Unlock()
}

type captureNotifier struct {
	mu       sync.Mutex
	statuses []Status
}

func (n *captureNotifier) Publish(s Status) {
	n.mu.Lock()
	n.statuses = append(n.statuses, s)
	n.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func marketerIdentity() model.Identity {
	return model.Identity{
		UserType: model.UserTypeMarketer,
		Username: "ann",
		FullName: "Ann Moyo",
		UserID:   "U7",
		ShopID:   "S1",
		ShopName: "Avondale",
		Marketer: &model.MarketerData{
			MarketerID: "M1",
			FullName:   "Ann Moyo",
			ShopID:     "S1",
			ShopName:   "Avondale",
		},
	}
}

type harness struct {
	t        *testing.T
	c        *Controller
	clock    *fakeClock
	backend  *fakeBackend
	storage  *store.SessionStorage
	source   *fakeSource
	net      *fakeNet
	notifier *captureNotifier

	// deferSpawn queues off-loop work until runQueued is called.
	deferSpawn bool
	queued     []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	storage := store.NewSessionStorage(store.NewMemoryStore(), nil)
	if err := storage.SaveIdentity(context.Background(), marketerIdentity()); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	return newHarnessWith(t, storage)
}

// newHarnessWith builds a controller over existing storage, as a restarted
// agent would see it.
func newHarnessWith(t *testing.T, storage *store.SessionStorage) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    newFakeClock(),
		backend:  &fakeBackend{},
		storage:  storage,
		source:   &fakeSource{fix: geo.Fix{Lat: -17.8, Lon: 31.0}},
		net:      &fakeNet{online: true},
		notifier: &captureNotifier{},
	}
	h.c = New(Config{}, Deps{
		Store:    h.storage,
		Backend:  h.backend,
		Source:   h.source,
		Network:  h.net,
		Notifier: h.notifier,
		Clock:    h.clock,
		Logger:   testLogger(),
	})
	h.c.post = func(f func()) { f() }
	h.c.spawn = func(f func()) {
		if h.deferSpawn {
			h.queued = append(h.queued, f)
			return
		}
		f()
	}
	return h
}

func (h *harness) start() {
	h.t.Helper()
	if err := h.c.Start(context.Background()); err != nil {
		h.t.Fatalf("start: %v", err)
	}
}

func (h *harness) runNext() {
	h.t.Helper()
	if len(h.queued) == 0 {
		h.t.Fatal("no queued work")
	}
	f := h.queued[0]
	h.queued = h.queued[1:]
	f()
}

func (h *harness) runQueued() {
	for len(h.queued) > 0 {
		f := h.queued[0]
		h.queued = h.queued[1:]
		f()
	}
}

func (h *harness) loggedIn() bool {
	_, err := h.storage.Identity(context.Background())
	return err == nil
}

func (h *harness) finished() bool {
	select {
	case <-h.c.Done():
		return true
	default:
		return false
	}
}
