package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/redact"
	"github.com/phrazzld/txspec/internal/suites"
)

// interruptGrace is how long a cancelled go test may keep running after
// the interrupt before it is killed.
const interruptGrace = 10 * time.Second

func suitesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "suites",
		Usage: "list the named test suites",
		Action: func(c *cli.Context) error {
			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			for _, s := range suites.List(a.cfg) {
				status := "ready"
				if ok, _ := s.Runnable(a.cfg); !ok {
					status = "unconfigured"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, status, s.Description)
			}
			return w.Flush()
		},
	}
}

func runCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run suites with go test (all suites when none are named)",
		ArgsUsage: "[SUITE...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "print the go test commands without running them"},
			&cli.BoolFlag{Name: "race", Usage: "enable the race detector"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "verbose go test output"},
		},
		Action: func(c *cli.Context) error {
			selected, err := a.selectSuites(c.Args().Slice())
			if err != nil {
				return err
			}
			opts := suites.RunOptions{Race: c.Bool("race"), Verbose: c.Bool("verbose")}

			root, err := ciutil.FindProjectRoot(a.log)
			if err != nil {
				return err
			}

			var failed []string
			for _, s := range selected {
				log := a.log.With(slog.String("suite", s.Name))

				if ok, reason := s.Runnable(a.cfg); !ok {
					if a.cfg.Test.SkipWarn {
						log.Warn("skipping suite", slog.String("reason", reason))
					} else {
						log.Info("skipping suite", slog.String("reason", reason))
					}
					continue
				}

				args := s.Args(opts)
				if c.Bool("dry-run") {
					fmt.Fprintf(c.App.Writer, "go %s\n", strings.Join(args, " "))
					continue
				}

				cmd := exec.CommandContext(c.Context, "go", args...)
				cmd.Dir = root
				cmd.Env = s.Env(a.cfg, os.Environ())
				cmd.Stdout = c.App.Writer
				cmd.Stderr = c.App.ErrWriter
				// Interrupt first so go test can print its partial report.
				cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
				cmd.WaitDelay = interruptGrace

				log.Info("running suite", slog.Any("packages", s.Packages))
				if err := a.runCmd(cmd); err != nil {
					log.Error("suite failed", redact.ErrorAttr(err))
					failed = append(failed, s.Name)
					continue
				}
				log.Info("suite passed")
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d suite(s) failed: %s", len(failed), strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

// selectSuites resolves suite names; no names means every suite.
func (a *app) selectSuites(names []string) ([]suites.Suite, error) {
	if len(names) == 0 {
		return suites.List(a.cfg), nil
	}
	selected := make([]suites.Suite, 0, len(names))
	var errs []error
	for _, name := range names {
		s, err := suites.Lookup(name, a.cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		selected = append(selected, s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return selected, nil
}
