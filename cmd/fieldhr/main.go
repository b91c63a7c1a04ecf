package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/fieldtrack/internal/api"
	"github.com/dukerupert/fieldtrack/internal/auth"
	"github.com/dukerupert/fieldtrack/internal/config"
	"github.com/dukerupert/fieldtrack/internal/logging"
	"github.com/dukerupert/fieldtrack/internal/model"
	"github.com/dukerupert/fieldtrack/internal/store"
)

const usage = `usage: fieldhr <command> [flags]

commands:
  signup              create an HR account
  login               sign in as HR
  logout              sign out
  overview            marketer totals and recent activity
  shops               list registered shops
  register-shop       add a shop
  register-marketer   add a marketer
  marketers           list all marketers
  active              show logged-in marketers by location
  logs                attendance logs and weekly hours
`

const requestTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	commands := map[string]func([]string) error{
		"signup":            runSignup,
		"login":             runLogin,
		"logout":            runLogout,
		"overview":          runOverview,
		"shops":             runShops,
		"register-shop":     runRegisterShop,
		"register-marketer": runRegisterMarketer,
		"marketers":         runMarketers,
		"active":            runActive,
		"logs":              runLogs,
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return
	}
	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err := run(args); err != nil {
		fmt.Fprintln(os.Stderr, "fieldhr:", err)
		os.Exit(1)
	}
}

// env carries what every command needs once flags are parsed.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *api.Client
	storage *store.SessionStorage
	close   func() error
}

func setup(fs *flag.FlagSet, args []string) (*env, error) {
	envFile := fs.String("env", "", "env file to load before the environment")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	kv, closeFn, err := store.Open(ctx, store.Options{
		Kind:          cfg.Store,
		DBPath:        cfg.DBPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Device:        cfg.Device,
		TTL:           cfg.RedisTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &env{
		cfg:     cfg,
		logger:  logger,
		client:  api.NewClient(cfg.APIURL, api.WithLogger(logger.With("component", "api"))),
		storage: store.NewSessionStorage(kv, store.NewSealer(cfg.StorePassphrase)),
		close:   closeFn,
	}, nil
}

// hr returns the logged-in HR identity.
func (e *env) hr(ctx context.Context) (model.Identity, error) {
	id, err := auth.Require(ctx, e.storage, model.UserTypeHR)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, auth.ErrWrongUserType) {
			return model.Identity{}, errors.New("not logged in as HR; run 'fieldhr login' first")
		}
		return model.Identity{}, err
	}
	return id, nil
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// backendError turns a backend failure into the message shown to the user.
func backendError(err error) error {
	var rejected *api.RejectedError
	if errors.As(err, &rejected) {
		if rejected.Message != "" {
			return errors.New(rejected.Message)
		}
		return fmt.Errorf("%s failed", rejected.Action)
	}
	return fmt.Errorf("connection error, please try again: %w", err)
}
