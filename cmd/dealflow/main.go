package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/dealflow/internal/cli"
	"github.com/alexanderramin/dealflow/internal/config"
	"github.com/alexanderramin/dealflow/internal/db"
	"github.com/alexanderramin/dealflow/internal/events"
	"github.com/alexanderramin/dealflow/internal/logging"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	stages, err := cfg.StageRegistry()
	if err != nil {
		return err
	}

	app := &cli.App{
		Stages: stages,
		Config: cfg,
		Logger: logger,
	}

	// Open the store: the local SQLite database, or a dealflow server.
	switch cfg.Store.Mode {
	case config.StoreRemote:
		store, err := recordstore.NewRemote(cfg.Store.URL,
			recordstore.WithTimeout(cfg.Store.Timeout),
			recordstore.WithRateLimit(cfg.Store.RateLimit, max(int(cfg.Store.RateLimit), 1)),
			recordstore.WithLogger(logger.Named("recordstore")),
		)
		if err != nil {
			return err
		}
		app.Store = store
	default:
		database, err := db.OpenDB(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer closeQuietly(database, logger)

		uow := db.NewSQLiteUnitOfWork(database)
		app.Store = recordstore.NewLocal(database, uow, stages)
		app.Import = service.NewImportService(uow, stages, service.NewLogUseCaseObserver(logger))
	}

	observer := service.NewLogUseCaseObserver(logger)
	app.Contacts = service.NewContactService(app.Store, observer)
	app.Activities = service.NewActivityService(app.Store, observer)
	app.Dashboard = service.NewDashboardService(app.Store, stages)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Registry = registry

	notifiers := pipeline.MultiNotifier{
		pipeline.LogNotifier{Logger: logger.Named("pipeline")},
		pipeline.NewMetricsNotifier(registry),
	}
	if cfg.Events.Enabled() {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger.Named("events"))
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	app.NewBoard = func(extra ...pipeline.Notifier) *pipeline.Board {
		all := make(pipeline.MultiNotifier, 0, len(notifiers)+len(extra))
		all = append(all, notifiers...)
		all = append(all, extra...)
		return pipeline.NewBoard(stages, app.Store.Deals, app.Store.Contacts,
			pipeline.WithNotifier(all),
			pipeline.WithLogger(logger.Named("board")),
		)
	}

	// The board opens on a bare "dealflow" only when a person is at the
	// terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

// configPathFromArgs picks --config out of the arguments before cobra runs,
// since the App has to exist before the command tree is built. Only the
// --config tokens are handed to pflag; cobra validates the rest.
func configPathFromArgs(args []string) string {
	var own []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		switch {
		case strings.HasPrefix(a, "--config="):
			own = append(own, a)
		case a == "--config" && i+1 < len(args):
			own = append(own, a, args[i+1])
			i++
		}
	}

	fs := pflag.NewFlagSet("dealflow", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "")
	if err := fs.Parse(own); err != nil {
		return ""
	}
	return *path
}

func closeQuietly(database *sql.DB, logger *zap.Logger) {
	if err := database.Close(); err != nil {
		logger.Warn("closing database", zap.Error(err))
	}
}
