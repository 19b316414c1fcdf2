package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/txspec/internal/catalog"
	"github.com/phrazzld/txspec/internal/cleanup"
	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/redact"
	"github.com/phrazzld/txspec/internal/store"
)

// checkParallelism bounds concurrent target connections in check.
const checkParallelism = 4

func checkCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "ping every configured target and report its schema version",
		Action: func(c *cli.Context) error {
			names := a.cfg.TargetNames()
			if len(names) == 0 {
				fmt.Fprintln(c.App.Writer, "no targets configured")
				return nil
			}

			type result struct {
				dialect database.Dialect
				version int64
				err     error
			}
			results := make([]result, len(names))

			g, ctx := errgroup.WithContext(c.Context)
			g.SetLimit(checkParallelism)
			for i, name := range names {
				g.Go(func() error {
					db, dialect, err := a.open(ctx, name)
					if err != nil {
						results[i] = result{err: err}
						return nil
					}
					defer closeDB(a.log, db)

					version, err := database.Version(ctx, db, dialect)
					results[i] = result{dialect: dialect, version: version, err: err}
					return nil
				})
			}
			// Per-target failures are recorded in results.
			_ = g.Wait()

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TARGET\tDIALECT\tSTATUS\tVERSION")
			var failed []string
			for i, name := range names {
				r := results[i]
				if r.err != nil {
					a.log.Error("target check failed",
						slog.String("target", name),
						redact.ErrorAttr(r.err))
					fmt.Fprintf(w, "%s\t%s\tunreachable\t-\n", name, r.dialect)
					failed = append(failed, name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\tok\t%d\n", name, r.dialect, r.version)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d target(s) unreachable: %s", len(failed), strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func migrateCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "run the setup file and the example-schema migrations on a target",
		ArgsUsage: "TARGET",
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			db, dialect, err := a.open(c.Context, name)
			if err != nil {
				return err
			}
			defer closeDB(a.log, db)

			log := a.log.With(slog.String("target", name))

			if setup := a.cfg.SetupFileFor(name); setup != "" {
				log.Info("running setup file", slog.String("path", setup))
				if err := database.RunSetupFile(c.Context, db, setup); err != nil {
					return err
				}
			}

			if err := database.Migrate(c.Context, db, dialect, log); err != nil {
				return fmt.Errorf("target %s: %w", name, err)
			}
			version, err := database.Version(c.Context, db, dialect)
			if err != nil {
				return err
			}

			log.Info("migrations applied", slog.Int64("version", version))
			fmt.Fprintf(c.App.Writer, "%s migrated to version %d\n", name, version)
			return nil
		},
	}
}

func seedCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "commit example artists and albums to a migrated target",
		ArgsUsage: "TARGET",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "artists", Usage: "artists to create", Value: 3},
			&cli.IntFlag{Name: "albums", Usage: "albums per artist", Value: 2},
		},
		Action: func(c *cli.Context) error {
			artists, albums := c.Int("artists"), c.Int("albums")
			if artists < 0 || albums < 0 {
				return fmt.Errorf("--artists and --albums must not be negative")
			}

			name := c.Args().First()
			db, dialect, err := a.open(c.Context, name)
			if err != nil {
				return err
			}
			defer closeDB(a.log, db)

			log := a.log.With(slog.String("target", name))
			ctx := logger.WithLogger(c.Context, log)

			err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				return seed(ctx, tx, dialect, log, artists, albums)
			})
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", name, err)
			}

			fmt.Fprintf(c.App.Writer, "seeded %s with %d artists and %d albums\n",
				name, artists, artists*albums)
			return nil
		},
	}
}

func seed(ctx context.Context, db store.DBTX, dialect database.Dialect, log *slog.Logger, artists, albums int) error {
	artistStore := catalog.NewArtistStore(db, dialect, log)
	albumStore := catalog.NewAlbumStore(db, dialect, log)

	batch := uuid.NewString()[:8]
	for i := 1; i <= artists; i++ {
		artist := &store.Artist{Name: fmt.Sprintf("Seed Artist %s-%02d", batch, i)}
		if err := artistStore.Create(ctx, artist); err != nil {
			return err
		}
		for j := 1; j <= albums; j++ {
			album := &store.Album{
				ArtistID: artist.ID,
				Title:    fmt.Sprintf("Seed Album %02d", j),
			}
			if err := albumStore.Create(ctx, album); err != nil {
				return err
			}
		}
	}
	return nil
}

func cleanCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "delete every row from a target's tables without a transaction",
		ArgsUsage: "TARGET",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "table",
				Usage: "table to clean, in delete order (repeatable); derived from foreign keys when omitted",
			},
			&cli.BoolFlag{Name: "plan", Usage: "print the delete order without deleting"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			db, dialect, err := a.open(c.Context, name)
			if err != nil {
				return err
			}
			defer closeDB(a.log, db)

			var cleaner *cleanup.Cleaner
			if tables := c.StringSlice("table"); len(tables) > 0 {
				cleaner = cleanup.New(db, dialect, tables...)
			} else {
				cleaner, err = cleanup.NewPlanned(c.Context, db, dialect)
				if err != nil {
					return fmt.Errorf("target %s: %w", name, err)
				}
			}

			order := strings.Join(cleaner.Tables(), ", ")
			if c.Bool("plan") {
				fmt.Fprintln(c.App.Writer, order)
				return nil
			}

			if err := cleaner.Clean(c.Context); err != nil {
				return fmt.Errorf("target %s: %w", name, err)
			}
			a.log.Info("cleaned tables",
				slog.String("target", name),
				slog.Any("tables", cleaner.Tables()))
			fmt.Fprintf(c.App.Writer, "cleaned %s: %s\n", name, order)
			return nil
		},
	}
}
