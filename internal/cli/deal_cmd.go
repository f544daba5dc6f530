package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/spf13/cobra"
)

func newDealCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deal",
		Aliases: []string{"deals"},
		Short:   "Manage deals and move them through the pipeline",
	}

	cmd.AddCommand(
		newDealListCmd(app),
		newDealShowCmd(app),
		newDealCreateCmd(app),
		newDealEditCmd(app),
		newDealMoveCmd(app),
		newDealRemoveCmd(app),
	)

	return cmd
}

// loadBoard builds a board and loads the working set. Single-shot commands
// go through the board so they share its validation and transition rules.
func loadBoard(ctx context.Context, app *App) (*pipeline.Board, error) {
	board := app.NewBoard()
	if err := board.Load(ctx); err != nil {
		return nil, err
	}
	return board, nil
}

func newDealListCmd(app *App) *cobra.Command {
	var stage, contact string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals, optionally by stage or contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			q := recordstore.DealQuery{Limit: -1}
			if stage != "" {
				s, err := resolveStage(app.Stages, stage)
				if err != nil {
					return err
				}
				q.StageID = s.ID
			}
			if contact != "" {
				id, err := resolveContactID(ctx, app, contact)
				if err != nil {
					return err
				}
				q.ContactID = id
			}

			deals, err := app.Store.Deals.List(ctx, q)
			if err != nil {
				return err
			}
			names, err := loadContactNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDealList(deals, names, app.Stages, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Only deals in this stage")
	cmd.Flags().StringVar(&contact, "contact", "", "Only deals for this contact (id, email or name)")

	return cmd
}

func newDealShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a deal with its activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("deal", args[0])
			if err != nil {
				return err
			}
			d, err := app.Store.Deals.Get(ctx, id)
			if err != nil {
				return err
			}
			name := ""
			if c, err := app.Contacts.Get(ctx, d.ContactID); err == nil {
				name = c.Name
			}
			acts, err := app.Activities.List(ctx, service.ActivityListFilter{
				DealID: id, Sort: service.SortActivitiesRecent, Limit: 10,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDeal(d, name, app.Stages, acts, app.now()))
			return nil
		},
	}
}

func newDealCreateCmd(app *App) *cobra.Command {
	var (
		in                              domain.DealInput
		contact, stage, closeDate, tags string
		probability                     int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deal (starts in the first stage unless --stage is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			contactID, err := resolveContactID(ctx, app, contact)
			if err != nil {
				return err
			}
			in.ContactID = contactID
			if stage != "" {
				s, err := resolveStage(app.Stages, stage)
				if err != nil {
					return err
				}
				in.StageID = s.ID
			}
			if cmd.Flags().Changed("probability") {
				in.Probability = &probability
			}
			if in.ExpectedCloseDate, err = parseOptionalDate(closeDate); err != nil {
				return err
			}
			in.Tags = splitTags(tags)

			created, err := app.NewBoard().Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deal #%d %s  %s  %s\n",
				created.ID, formatter.Bold(created.Title), formatter.Currency(created.Value),
				formatter.Dim(created.StageID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Deal title")
	cmd.Flags().Float64Var(&in.Value, "value", 0, "Deal value in dollars")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact (id, email or name)")
	cmd.Flags().StringVar(&stage, "stage", "", "Initial stage")
	cmd.Flags().IntVar(&probability, "probability", 0, "Win probability 0-100 (defaults to the stage's)")
	cmd.Flags().StringVar(&closeDate, "close", "", "Expected close date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("contact")

	return cmd
}

func newDealEditCmd(app *App) *cobra.Command {
	var (
		title, contact, notes, closeDate, tags string
		value                                  float64
		probability                            int
		clearClose                             bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Update deal fields (use 'deal move' to change stage)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("deal", args[0])
			if err != nil {
				return err
			}

			var patch domain.DealPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("value") {
				patch.Value = &value
			}
			if flags.Changed("probability") {
				patch.Probability = &probability
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("tags") {
				t := splitTags(tags)
				patch.Tags = &t
			}
			if flags.Changed("contact") {
				cid, err := resolveContactID(ctx, app, contact)
				if err != nil {
					return err
				}
				patch.ContactID = &cid
			}
			if flags.Changed("close") {
				if patch.ExpectedCloseDate, err = parseOptionalDate(closeDate); err != nil {
					return err
				}
				patch.ClearCloseDate = patch.ExpectedCloseDate == nil
			}
			if clearClose {
				patch.ClearCloseDate = true
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}

			board, err := loadBoard(ctx, app)
			if err != nil {
				return err
			}
			updated, err := board.Edit(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated deal #%d %s\n", updated.ID, formatter.Bold(updated.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Deal title")
	cmd.Flags().Float64Var(&value, "value", 0, "Deal value in dollars")
	cmd.Flags().IntVar(&probability, "probability", 0, "Win probability 0-100")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact (id, email or name)")
	cmd.Flags().StringVar(&closeDate, "close", "", "Expected close date (YYYY-MM-DD, empty clears)")
	cmd.Flags().BoolVar(&clearClose, "no-close", false, "Clear the expected close date")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags (replaces existing)")

	return cmd
}

func newDealMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID STAGE",
		Short: "Move a deal to another stage (probability resets to the stage default)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("deal", args[0])
			if err != nil {
				return err
			}
			target, err := resolveStage(app.Stages, args[1])
			if err != nil {
				return err
			}

			board, err := loadBoard(ctx, app)
			if err != nil {
				return err
			}
			before, ok := board.Deal(id)
			if !ok || !board.BeginDrag(id) {
				return fmt.Errorf("deal %d: %w", id, domain.ErrNotFound)
			}
			outcome, err := board.Drop(ctx, target.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch outcome {
			case pipeline.OutcomeMoved:
				moved, _ := board.Deal(id)
				fmt.Fprint(out, formatter.FormatStageMove(moved, before.StageID, app.Stages))
			case pipeline.OutcomeUnchanged:
				fmt.Fprintf(out, "Deal #%d is already in %s\n", id, target.Name)
			default:
				return fmt.Errorf("deal %d: move %s", id, outcome)
			}
			return nil
		},
	}
}

func newDealRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a deal",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := parseID("deal", args[0])
			if err != nil {
				return err
			}
			board, err := loadBoard(ctx, app)
			if err != nil {
				return err
			}
			if err := board.Delete(ctx, id); err != nil {
				if pipeline.KindOf(err) == pipeline.KindNotFound {
					return fmt.Errorf("deal %d: %w", id, domain.ErrNotFound)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed deal #%d\n", id)
			return nil
		},
	}
}

// describeError turns board errors into short user-facing text.
func describeError(err error) string {
	var ve *domain.ValidationError
	var oe *pipeline.OpError
	switch {
	case errors.As(err, &ve):
		return "Invalid " + ve.Entity + ": " + joinFieldMessages(ve)
	case !errors.As(err, &oe):
		return err.Error()
	case oe.Kind == pipeline.KindBusy:
		return "That deal is still saving; try again in a moment."
	case oe.Kind == pipeline.KindStoreFailure && oe.Op == pipeline.OpStageChange:
		return "Could not save, move reverted: " + oe.Err.Error()
	default:
		return oe.Err.Error()
	}
}

func joinFieldMessages(ve *domain.ValidationError) string {
	msg := ""
	for i, f := range ve.Fields {
		if i > 0 {
			msg += "; "
		}
		msg += f.Message
	}
	return msg
}
