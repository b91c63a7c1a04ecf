package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/fieldtrack/internal/api"
	"github.com/dukerupert/fieldtrack/internal/config"
	"github.com/dukerupert/fieldtrack/internal/geo"
	"github.com/dukerupert/fieldtrack/internal/logging"
	"github.com/dukerupert/fieldtrack/internal/netmon"
	"github.com/dukerupert/fieldtrack/internal/server"
	"github.com/dukerupert/fieldtrack/internal/session"
	"github.com/dukerupert/fieldtrack/internal/store"
	ws "github.com/dukerupert/fieldtrack/internal/websocket"
)

const usage = `usage: fieldtrack <command> [flags]

commands:
  run       start the attendance session (default)
  login     sign in as a marketer
  shops     list registered shops
  logout    end the running session
  status    show the running session
`

// reportGrace bounds how long exit waits on a logout report.
const reportGrace = 15 * time.Second

func main() {
	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = runAgent(args)
	case "login":
		err = runLogin(args)
	case "shops":
		err = runShops(args)
	case "logout":
		err = runLogout(args)
	case "status":
		err = runStatus(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fieldtrack:", err)
		os.Exit(1)
	}
}

func storeOptions(cfg config.Config) store.Options {
	return store.Options{
		Kind:          cfg.Store,
		DBPath:        cfg.DBPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Device:        cfg.Device,
		TTL:           cfg.RedisTTL,
	}
}

func openStorage(ctx context.Context, cfg config.Config) (*store.SessionStorage, func() error, error) {
	kv, closeFn, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return store.NewSessionStorage(kv, store.NewSealer(cfg.StorePassphrase)), closeFn, nil
}

func newSource(cfg config.GPSConfig, logger *slog.Logger) (geo.Source, error) {
	switch cfg.Source {
	case "static":
		lat, err := strconv.ParseFloat(cfg.StaticLat, 64)
		if err != nil {
			return nil, fmt.Errorf("static latitude %q: %w", cfg.StaticLat, err)
		}
		lon, err := strconv.ParseFloat(cfg.StaticLon, 64)
		if err != nil {
			return nil, fmt.Errorf("static longitude %q: %w", cfg.StaticLon, err)
		}
		return geo.NewStaticSource(lat, lon), nil
	case "replay":
		src, err := geo.LoadReplay(cfg.ReplayFile, cfg.ReplayInterval)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return geo.NewGPSDSource(cfg.GPSDAddr, logger), nil
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	envFile := fs.String("env", "", "env file to load before the environment")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	if *envFile != "" {
		return config.Load(*envFile)
	}
	return config.Load()
}

func runAgent(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	storage, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := newSource(cfg.GPS, logger.With("component", "gps"))
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL, api.WithLogger(logger.With("component", "api")))
	hub := ws.NewHub(logger.With("component", "websocket"))

	var ctrl *session.Controller
	monitor := netmon.NewMonitor(
		netmon.HTTPProber{URL: cfg.ProbeURL},
		cfg.ProbeInterval,
		logger.With("component", "netmon"),
		func(s netmon.Status) {
			ctrl.ConnectivityChanged(s.State == netmon.StateOnline)
		},
	)
	ctrl = session.New(session.Config{
		GracePeriod:  cfg.GracePeriod,
		PollInterval: cfg.PollInterval,
	}, session.Deps{
		Store:    storage,
		Backend:  client,
		Source:   source,
		Network:  monitor,
		Notifier: hub,
		Logger:   logger.With("component", "session"),
	})

	if err := ctrl.Start(ctx); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errors.New("not logged in as a marketer; run 'fieldtrack login' first")
		}
		return err
	}

	monitor.Start(ctx)
	defer monitor.Stop()

	runDone := make(chan error, 1)
	go func() { runDone <- ctrl.Run(ctx) }()

	srv := server.New(ctrl, hub, logger)
	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
		// Status websockets stay open for the whole session.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("status server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server", "error", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		reload := sig == syscall.SIGHUP
		logger.Info("shutting down", "signal", sig.String(), "reload", reload)
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ctrl.Unload(uctx, reload); err != nil && !errors.Is(err, session.ErrEnded) {
			logger.Warn("unload", "error", err)
		}
		cancel()
	case <-ctrl.Done():
		logger.Info("session ended", "reason", ctrl.EndReason())
	}

	stop()
	<-runDone
	if !ctrl.WaitReports(reportGrace) {
		logger.Warn("logout report still in flight at exit")
	}
	if !client.Flush(5 * time.Second) {
		logger.Warn("pending reports abandoned")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
