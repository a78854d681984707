package main

import (
	"context"
	"errors"

	cblog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/internal/app"
	"github.com/alexisbeaulieu97/mhplugin/internal/config"
	infraconfig "github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/config"
	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/logger"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

const startupBufferSize = 256

// session is the per-command runtime: resolved configuration, loggers and,
// when requested, the application services.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	file    string
	logger  ports.Logger
	app     *app.Context
	closers []func() error
}

// openSession loads configuration and builds loggers. Log entries emitted
// while configuration is loading are buffered and replayed once the real
// sinks exist. withApp also opens the registry and wires every service.
func openSession(cmd *cobra.Command, flags *rootFlags, withApp bool) (*session, error) {
	ctx, _ := logging.StartCommand(cmd.Context())
	buffer := logging.NewBuffer(startupBufferSize)

	loaded, err := infraconfig.NewViperLoader(buffer.Logger()).Load(ctx, infraconfig.Options{
		File:      flags.configFile,
		DataDir:   flags.dataDir,
		Overrides: flagOverrides(flags),
	})
	if err != nil {
		if fallback, ferr := logging.New(logging.Options{Writer: cmd.ErrOrStderr(), Level: "warn", Layer: "cli"}); ferr == nil {
			buffer.Flush(fallback)
		}
		return nil, newCommandError(cmd.Name(), "loading configuration", err, "Check the configuration file and MHPLUGIN_* environment variables, or run 'mhplugin config init'.")
	}
	cfg := loaded.Config

	s := &session{ctx: ctx, cfg: cfg, file: loaded.File}
	log, err := s.buildLogger(cmd)
	if err != nil {
		return nil, newCommandError(cmd.Name(), "configuring logging", err, "Use one of debug, info, warn or error for log.level.")
	}
	s.logger = log.With("command", cmd.CommandPath())
	buffer.Flush(s.logger)

	if withApp {
		appCtx, err := app.New(ctx, cfg, s.logger)
		if err != nil {
			_ = s.Close()
			return nil, newCommandError(cmd.Name(), "opening plugin registry", err, "Check registry.driver and registry.dsn, and that the data directory is writable.")
		}
		s.app = appCtx
		s.closers = append(s.closers, appCtx.Close)
	}
	return s, nil
}

func (s *session) buildLogger(cmd *cobra.Command) (ports.Logger, error) {
	formatter := cblog.TextFormatter
	if s.cfg.Log.Format == "json" {
		formatter = cblog.JSONFormatter
	}
	console, err := logging.New(logging.Options{
		Writer:    cmd.ErrOrStderr(),
		Level:     s.cfg.Log.Level,
		Formatter: formatter,
		Layer:     "cli",
	})
	if err != nil {
		return nil, err
	}

	file, err := logger.OpenFile(s.cfg.LogDir(), s.cfg.Log.Level)
	if err != nil {
		console.Warn(s.ctx, "persistent log disabled", "dir", s.cfg.LogDir(), "error", err)
		return console, nil
	}
	s.closers = append(s.closers, file.Close)
	return logging.NewTee(console, file), nil
}

// Close releases everything the session opened, newest first.
func (s *session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func flagOverrides(flags *rootFlags) map[string]any {
	overrides := map[string]any{}
	if flags.logLevel != "" {
		overrides["log.level"] = flags.logLevel
	}
	return overrides
}

// withSession runs fn inside a session and always closes it.
func withSession(cmd *cobra.Command, flags *rootFlags, withApp bool, fn func(*session) error) error {
	s, err := openSession(cmd, flags, withApp)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}
