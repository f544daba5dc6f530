package cli

import (
	"time"

	"github.com/alexanderramin/dealflow/internal/config"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the services and collaborators used by CLI commands and the
// interactive board.
type App struct {
	Contacts   service.ContactService
	Activities service.ActivityService
	Dashboard  service.DashboardService
	// Import is nil when the store is remote; imports write through the
	// local unit of work.
	Import service.ImportService

	Store  *recordstore.Store
	Stages *domain.StageRegistry

	// NewBoard builds a pipeline board wired with the process-wide
	// notifiers plus any extra ones (the TUI adds its own).
	NewBoard func(extra ...pipeline.Notifier) *pipeline.Board

	Config   *config.Config
	Registry *prometheus.Registry
	Logger   *zap.Logger

	// IsInteractive reports whether stdin is a terminal. When nil the
	// board is never launched implicitly.
	IsInteractive func() bool

	// Now is the clock used for relative dates. Defaults to time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

// NewRootCmd creates the top-level "dealflow" command and registers all
// subcommands against the provided App. With no subcommand on an interactive
// terminal it opens the board.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dealflow",
		Short:         "Contacts, deals and a kanban sales pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && app.IsInteractive() {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	// Read before the App is built (see cmd/dealflow); declared here so
	// cobra accepts and documents it.
	root.PersistentFlags().String("config", "", "Config file (default ~/.dealflow/config.yaml)")

	root.AddCommand(
		newContactCmd(app),
		newDealCmd(app),
		newActivityCmd(app),
		newDashboardCmd(app),
		newBoardCmd(app),
		newStagesCmd(app),
		newImportCmd(app),
		newServeCmd(app),
		newEventsCmd(app),
	)

	return root
}
