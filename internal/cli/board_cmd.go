package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	var printOnce bool
	var width int

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive pipeline board",
		Long: `Open the interactive pipeline board.

Keys: ←/→ and ↑/↓ move the cursor, space picks up a deal, ←/→ choose the
target stage and space drops it there (esc cancels). n creates a deal,
e edits, x deletes, a logs an activity, enter shows details.
1-4 switch between board, contacts, activities and dashboard.

With --print, or when stdout is not a terminal, the board is printed once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !printOnce && app.IsInteractive != nil && app.IsInteractive() {
				return runTUI(app)
			}
			board, err := loadBoard(context.Background(), app)
			if err != nil {
				return err
			}
			defer board.Dispose()
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderBoard(board.Snapshot(), formatter.BoardView{Width: width, Col: -1}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnce, "print", false, "Print the board once instead of opening it")
	cmd.Flags().IntVar(&width, "width", 120, "Width of the printed board")

	return cmd
}
