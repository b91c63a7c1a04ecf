// Package session runs the attendance session of a marketer device: GPS
// tracking, the one-time attendance report, the network grace period and
// the logout paths.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/fieldtrack/internal/api"
	"github.com/dukerupert/fieldtrack/internal/geo"
	"github.com/dukerupert/fieldtrack/internal/metrics"
	"github.com/dukerupert/fieldtrack/internal/model"
)

const (
	DefaultGracePeriod  = 120 * time.Second
	DefaultPollInterval = 5 * time.Second
	DefaultFixTimeout   = 10 * time.Second

	noCoordsRetry  = 2 * time.Second
	rejectedRetry  = 5 * time.Second
	transportRetry = 10 * time.Second

	redirectManualOK   = 1 * time.Second
	redirectManualFail = 2 * time.Second
	redirectAuto       = 3 * time.Second

	storageTimeout = 5 * time.Second
	reportTimeout  = 15 * time.Second
	eventBuffer    = 64
)

// Backend is the subset of the attendance API the session needs.
type Backend interface {
	LogAttendance(ctx context.Context, req model.AttendanceRequest) (string, error)
	LogoutMarketer(ctx context.Context, req model.LogoutRequest) error
	LogoutBeacon(req model.LogoutRequest) error
}

// IdentityStore is the persisted client state.
type IdentityStore interface {
	Identity(ctx context.Context) (model.Identity, error)
	MarkRefreshing(ctx context.Context) error
	TakeRefreshing(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

// Connectivity reports the current network state.
type Connectivity interface {
	Online() bool
}

type Config struct {
	GracePeriod  time.Duration
	PollInterval time.Duration
	FixTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FixTimeout <= 0 {
		c.FixTimeout = DefaultFixTimeout
	}
	return c
}

// Deps are the collaborators of a Controller. Notifier and Clock are
// optional.
type Deps struct {
	Store    IdentityStore
	Backend  Backend
	Source   geo.Source
	Network  Connectivity
	Notifier Notifier
	Clock    Clock
	Logger   *slog.Logger
}

type timers struct {
	elapsed   *handle
	retry     *handle
	poll      *handle
	countdown *handle
	alert     *handle
	redirect  *handle
}

// Controller owns a Session. All state changes run on its event loop;
// the exported methods only post work to it.
type Controller struct {
	cfg      Config
	store    IdentityStore
	backend  Backend
	source   geo.Source
	network  Connectivity
	notifier Notifier
	clock    Clock
	logger   *slog.Logger

	// post queues f on the loop; spawn runs f off the loop.
	post  func(func())
	spawn func(func())

	events  chan func()
	done    chan struct{}
	reports sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	// Loop-owned.
	s          Session
	timers     timers
	statusText string
	indicator  Indicator
	alert      *Alert
	endReason  EndReason

	mu     sync.Mutex
	status Status
}

func New(cfg Config, deps Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg.withDefaults(),
		store:    deps.Store,
		backend:  deps.Backend,
		source:   deps.Source,
		network:  deps.Network,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger,
		events:   make(chan func(), eventBuffer),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.post = func(f func()) {
		select {
		case c.events <- f:
		case <-c.done:
		}
	}
	c.spawn = func(f func()) { go f() }
	return c
}

// Start checks the persisted login and begins the session. It fails with
// ErrNotAuthenticated unless a marketer is logged in.
func (c *Controller) Start(ctx context.Context) error {
	id, err := c.store.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if !id.IsMarketer() || id.Marketer == nil {
		return ErrNotAuthenticated
	}

	refreshing, err := c.store.TakeRefreshing(ctx)
	if err != nil {
		c.logger.Warn("read refresh marker", "error", err)
	}

	c.post(func() { c.begin(id, refreshing) })
	return nil
}

// Run processes loop events until the session finishes or ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case f := <-c.events:
			f()
		case <-c.done:
			return nil
		case <-ctx.Done():
			c.finish(EndCancelled)
			return ctx.Err()
		}
	}
}

// Done is closed once the session has finished, after any redirect delay.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// EndReason reports how the session finished. Valid after Done is closed.
func (c *Controller) EndReason() EndReason {
	return c.Status().Ended
}

func (c *Controller) begin(id model.Identity, refreshing bool) {
	c.s = Session{
		ID:       uuid.NewString(),
		Identity: id,
		Marketer: *id.Marketer,
		LoginAt:  c.clock.Now(),
	}
	c.logger = c.logger.With("session_id", c.s.ID, "marketer_id", c.s.Marketer.MarketerID)
	c.setStatus("Acquiring GPS...", IndicatorWarning)
	c.timers.elapsed = c.every(time.Second, c.tick)

	if refreshing {
		c.s.refreshed = true
		c.s.AttendanceLogged = true
		c.logger.Info("session resumed after reload")
		c.showAlert(AlertInfo, "Session maintained", 3*time.Second)
		metrics.AttendanceAttempts.WithLabelValues("skipped_reload").Inc()
		c.startNetworkMonitoring()
	} else {
		c.logger.Info("session started")
	}

	c.startTracking()
	c.publish()
}

func (c *Controller) tick() {
	if c.s.finished {
		return
	}
	c.s.Elapsed++
	c.publish()
}

// finish tears the controller down. Storage is not touched here.
func (c *Controller) finish(reason EndReason) {
	if c.s.finished {
		return
	}
	c.s.finished = true
	c.s.terminated = true
	if c.endReason == endInProgress {
		c.endReason = reason
	}
	c.stopTimers()
	c.timers.alert.stop()
	c.timers.redirect.stop()
	c.cancel()
	c.publish()
	c.logger.Info("session finished", "reason", c.endReason)
	close(c.done)
}

func (c *Controller) stopTimers() {
	c.timers.elapsed.stop()
	c.timers.retry.stop()
	c.timers.poll.stop()
	c.timers.countdown.stop()
	c.timers.retry = nil
	c.timers.countdown = nil
}

// call posts f and waits for its result.
func (c *Controller) call(ctx context.Context, f func() error) error {
	errc := make(chan error, 1)
	c.post(func() { errc <- f() })
	select {
	case err := <-errc:
		return err
	case <-c.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrEnded
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) clearStorage() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("clear session storage", "error", err)
	}
}

func isRejected(err error) bool {
	var rejected *api.RejectedError
	return errors.As(err, &rejected)
}
