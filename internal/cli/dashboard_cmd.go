package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Pipeline totals, stage breakdown and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			summary, err := app.Dashboard.Summary(ctx)
			if err != nil {
				return err
			}
			names, err := loadContactNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDashboard(summary, names, app.now()))
			return nil
		},
	}
}

func newStagesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show the pipeline stage catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, app.Stages.Len())
			for _, s := range app.Stages.All() {
				rows = append(rows, []string{
					strconv.Itoa(s.Rank),
					s.ID,
					formatter.StageBadge(s, app.Stages.Len()),
					formatter.Percent(float64(s.DefaultProbability)),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"#", "ID", "NAME", "PROBABILITY"}, rows, 3))
			return nil
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import contacts, deals and activities from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Import == nil {
				return fmt.Errorf("import writes to the local database; it is not available with store.mode=remote")
			}
			res, err := app.Import.ImportFile(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d contacts, %d deals, %d activities\n",
				formatter.StyleGreen.Render("Imported"), res.Contacts, res.Deals, res.Activities)
			return nil
		},
	}
}
