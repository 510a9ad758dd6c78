// Package main is the predicate CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	internalcli "github.com/hyperjump/predicate/internal/cli"
	"github.com/hyperjump/predicate/internal/config"
	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/importer"
	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/pool"
	"github.com/hyperjump/predicate/internal/recommend"
	"github.com/hyperjump/predicate/internal/server"
	"github.com/hyperjump/predicate/internal/storage"
	"github.com/hyperjump/predicate/internal/watcher"
	"github.com/hyperjump/predicate/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/predicate/config.yaml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "predicate",
		Usage:   "Rank previously cleared devices as 510(k) predicate candidates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "config file path",
				EnvVars: []string{"PREDICATE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"PREDICATE_DEBUG"},
			},
		},
		Commands: []*cli.Command{
			recommendCommand(),
			importCommand(),
			attachSummaryCommand(),
			serveCommand(),
			statusCommand(),
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintf(c.App.Writer, "predicate version %s\n", version)
					return err
				},
			},
		},
	}
}

// loadConfig loads config from path. When path is the default, a config.yaml in the current
// directory takes precedence, and a missing default file yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// env holds what every command needs: resolved config and a logger.
type env struct {
	cfg        *config.Config
	configPath string
	debug      bool
	logger     *zap.Logger
}

func setup(c *cli.Context) (*env, error) {
	cfg, resolved, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || c.Bool("debug")
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return &env{cfg: cfg, configPath: resolved, debug: debug, logger: logger}, nil
}

func (e *env) openStorage() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(e.cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Rank candidate predicates for a subject device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"s"},
				Usage:    "subject device profile (.json or .yaml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "pool",
				Aliases: []string{"p"},
				Usage:   "candidate pool (.json, .csv or .xlsx); omitted reads stored candidates by product code",
			},
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"n"},
				Usage:   "number of recommendations (0 uses the configured default)",
			},
			&cli.StringFlag{
				Name:  "as-of",
				Usage: "reference date YYYY-MM-DD for candidate age (default today)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   string(internalcli.OutputText),
				Usage:   "output format: text, compact or json",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "persist the run to storage and print its id on stderr",
			},
		},
		Action: runRecommend,
	}
}

func runRecommend(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	format, err := internalcli.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	if c.Int("top") < 0 {
		return &models.InvalidInputError{Field: "top", Reason: "must not be negative"}
	}
	now := time.Now()
	if v := c.String("as-of"); v != "" {
		if now, err = time.Parse("2006-01-02", v); err != nil {
			return &models.InvalidInputError{Field: "as-of", Reason: err.Error()}
		}
	}

	subject, err := pool.LoadSubject(c.String("subject"))
	if err != nil {
		return err
	}

	var store *storage.SQLiteStorage
	if c.String("pool") == "" || c.Bool("save") {
		if store, err = e.openStorage(); err != nil {
			return err
		}
		defer store.Close()
	}

	var candidates []models.CandidateDevice
	if path := c.String("pool"); path != "" {
		candidates, err = pool.LoadCandidates(path)
	} else {
		candidates, err = store.ListCandidatesByProductCode(c.Context, subject.ProductCode)
	}
	if err != nil {
		return err
	}

	rec, err := recommend.New(&e.cfg.Ranking, recommend.WithLogger(e.logger))
	if err != nil {
		return err
	}
	result, err := rec.RecommendAt(c.Context, subject, candidates, c.Int("top"), now)
	if err != nil {
		return err
	}

	if c.Bool("save") {
		run := &models.Run{Result: result}
		if err := store.SaveRun(c.Context, run); err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Saved run %s\n", run.ID)
	}
	return internalcli.WriteResult(c.App.Writer, result, format)
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import candidate pools and summary documents into storage",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			return runImport(c, func(im *importer.Importer, ctx context.Context, path string) (*importer.Report, error) {
				return im.ImportFile(ctx, path)
			})
		},
	}
}

func attachSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "attach-summary",
		Usage:     "Attach 510(k) summary text to stored candidates; the K-number comes from each file name",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			return runImport(c, func(im *importer.Importer, ctx context.Context, path string) (*importer.Report, error) {
				return im.AttachSummary(ctx, path)
			})
		},
	}
}

type importFunc func(im *importer.Importer, ctx context.Context, path string) (*importer.Report, error)

// runImport applies fn to every file argument, reporting each, and fails if any file failed.
func runImport(c *cli.Context, fn importFunc) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	store, err := e.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	im := importer.New(store, importer.WithLogger(e.logger))
	failed := 0
	for _, path := range c.Args().Slice() {
		report, err := fn(im, c.Context, path)
		if err != nil {
			failed++
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", path, err)
			continue
		}
		printReport(c, report)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, c.NArg())
	}
	return nil
}

func printReport(c *cli.Context, r *importer.Report) {
	switch r.Kind {
	case importer.KindSummary:
		fmt.Fprintf(c.App.Writer, "%s: attached summary to %s\n", r.Path, r.KNumber)
	default:
		fmt.Fprintf(c.App.Writer, "%s: imported %d candidates, skipped %d\n", r.Path, r.Imported, len(r.Skipped))
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(c.App.Writer, "  skipped %s\n", s)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and watch the import inbox",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	logger := e.logger

	store, err := e.openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	cache := features.NewCache(e.cfg.Cache.Size)
	rec, err := recommend.New(&e.cfg.Ranking, recommend.WithLogger(logger), recommend.WithCache(cache))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	srvOpts := []server.Option{server.WithCache(cache)}
	if dirs := e.cfg.Import.Directories; len(dirs) > 0 {
		im := importer.New(store, importer.WithLogger(logger), importer.WithCache(cache))
		inbox := watcher.New(dirs, e.cfg.Import.Extensions, im.Handle,
			watcher.WithLogger(logger),
			watcher.WithRecursive(e.cfg.Import.RecursiveOrDefault()),
			watcher.WithDebounce(time.Duration(e.cfg.Import.DebounceMillis)*time.Millisecond),
		)
		if err := inbox.Start(ctx); err != nil {
			return fmt.Errorf("failed to start inbox watcher: %w", err)
		}
		defer inbox.Stop()
		go inbox.SyncExisting(ctx)
		srvOpts = append(srvOpts, server.WithInbox(inbox))
		logger.Info("Watching import inbox", zap.Strings("directories", inbox.Directories()))
	}

	srv := server.NewServer(rec, store, e.cfg, logger, srvOpts...)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show stored candidate and run counts",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			store, err := e.openStorage()
			if err != nil {
				return err
			}
			defer store.Close()

			candidates, err := store.CountCandidates(c.Context)
			if err != nil {
				return err
			}
			runs, err := store.CountRuns(c.Context)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "Database:   %s\n", e.cfg.Storage.DatabasePath)
			fmt.Fprintf(w, "Candidates: %d\n", candidates)
			fmt.Fprintf(w, "Runs:       %d\n", runs)
			if size, err := storage.DatabaseSize(e.cfg.Storage.DatabasePath); err == nil {
				fmt.Fprintf(w, "Disk usage: %d bytes\n", size)
			}
			if len(e.cfg.Import.Directories) > 0 {
				fmt.Fprintf(w, "Inbox:      %v\n", e.cfg.Import.Directories)
			}
			return nil
		},
	}
}
