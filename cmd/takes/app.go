package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twelfthman/internal/config"
	"twelfthman/internal/logger"
	"twelfthman/internal/remote"
	"twelfthman/internal/storage"
	"twelfthman/internal/syncer"
	"twelfthman/internal/takes"
)

// app holds everything one command invocation needs. It is opened per command and
// closed when the command returns.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	slots    *storage.SQLite
	store    *takes.Store
	profiles *takes.Profiles
	faults   *syncer.SlotFaults
	runLog   *syncer.SlotRunLog
	remote   *remote.Client
	sync     *syncer.Orchestrator
	out      *printer
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("TM_CONFIG")
	}
	envOnly := strings.EqualFold(os.Getenv("TM_ENV_ONLY"), "true") || os.Getenv("TM_ENV_ONLY") == "1"
	if path == "" {
		path = "config/config.yaml"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			envOnly = true
		}
	}
	cfg, err := config.Load(path, envOnly)
	if err != nil {
		return config.Config{}, err
	}
	if opts.dataDir != "" {
		cfg.Client.DataDir = opts.dataDir
	}
	if opts.serverURL != "" {
		cfg.Client.ServerURL = opts.serverURL
	}
	cfg.Log.Quiet = !opts.verbose
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Client.DataDir, "takes.log")
	}
	return cfg, nil
}

func openApp(ctx context.Context, opts *rootOptions, stdout io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Client.DataDir, 0o755); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	slots, err := storage.Open(ctx, cfg.Client.DataDir)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		slots:    slots,
		store:    takes.NewStore(slots),
		profiles: takes.NewProfiles(slots),
		faults:   syncer.NewSlotFaults(slots),
		runLog:   syncer.NewSlotRunLog(slots),
		remote:   remote.New(cfg.Client.ServerURL, cfg.Client.HTTPTimeout),
		out:      newPrinter(stdout, opts.output),
	}
	profile, err := a.profiles.Current(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if profile != nil {
		a.remote.SetToken(profile.Token)
	}
	a.sync = syncer.New(a.store, a.remote, a.faults, a.runLog, log, syncer.Options{
		BatchSize:  cfg.Client.BatchSize,
		MaxRetries: cfg.Client.MaxRetries,
		Backoff:    syncer.Backoff{Base: cfg.Client.BaseBackoff, Max: cfg.Client.MaxBackoff},
	})
	return a, nil
}

func (a *app) Close() {
	if a.slots != nil {
		if err := a.slots.Close(); err != nil {
			a.logger.Warn("close local storage", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// run opens the app for cmd, calls fn and closes the app again.
func run(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// requireProfile returns the local profile or an error telling the user to create one.
func (a *app) requireProfile(ctx context.Context) (*takes.Profile, error) {
	p, err := a.profiles.Current(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New(`no profile yet: run "takes register <username> --club <club>" first`)
	}
	return p, nil
}
