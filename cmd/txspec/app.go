package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/urfave/cli/v2"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/redact"
)

// app carries what the Before hook loads to the command actions.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error

	// runCmd executes a prepared go test command.
	runCmd func(*exec.Cmd) error
}

func newApp(stdout, stderr io.Writer) *cli.App {
	a := &app{runCmd: (*exec.Cmd).Run}
	return a.cli(stdout, stderr)
}

func (a *app) cli(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "txspec",
		Usage:     "Runs transactional database test suites",
		UsageText: "txspec [global options] command [command options] [arguments...]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "config file (YAML, TOML or JSON)",
				EnvVars: []string{ciutil.EnvConfigFile},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug|info|warn|error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json|text",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			suitesCommand(a),
			runCommand(a),
			checkCommand(a),
			migrateCommand(a),
			seedCommand(a),
			cleanCommand(a),
		},
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: c.String("config")})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	log, closeLog, err := logger.SetupWriter(cfg.Log, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.closeLog = closeLog

	log.Debug("configuration loaded",
		slog.Any("targets", cfg.TargetNames()),
		slog.String("log_level", cfg.Log.Level))
	return nil
}

func (a *app) after(*cli.Context) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// target looks up a configured target by name.
func (a *app) target(name string) (config.TargetConfig, error) {
	if name == "" {
		return config.TargetConfig{}, fmt.Errorf("a target name is required (configured: %v)", a.cfg.TargetNames())
	}
	t, ok := a.cfg.Target(name)
	if !ok {
		return config.TargetConfig{}, fmt.Errorf("target %q is not configured (set %s)",
			name, ciutil.TargetEnvVar(name))
	}
	return t, nil
}

// open connects to the named target. The caller closes the returned db.
func (a *app) open(ctx context.Context, name string) (*sql.DB, database.Dialect, error) {
	t, err := a.target(name)
	if err != nil {
		return nil, "", err
	}
	db, dialect, err := database.Open(ctx, t, database.Options{
		ForeignKeys: a.cfg.Test.ForeignKeys,
		Logger:      a.log.With(slog.String("target", name)),
	})
	if err != nil {
		return nil, "", fmt.Errorf("target %s: %w", name, err)
	}
	return db, dialect, nil
}

func closeDB(log *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warn("failed to close database", redact.ErrorAttr(err))
	}
}
