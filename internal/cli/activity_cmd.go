package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/spf13/cobra"
)

func newActivityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activity",
		Aliases: []string{"activities", "act"},
		Short:   "Log and review calls, emails, meetings, tasks and notes",
	}

	cmd.AddCommand(
		newActivityLogCmd(app),
		newActivityListCmd(app),
		newActivityRemoveCmd(app),
	)

	return cmd
}

func activityTypeNames() string {
	names := make([]string, 0, 5)
	for _, t := range domain.ActivityTypes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func parseActivityType(s string) (domain.ActivityType, error) {
	t := domain.ActivityType(strings.ToLower(strings.TrimSpace(s)))
	if !domain.ValidActivityTypes[t] {
		return "", fmt.Errorf("unknown activity type %q (one of %s)", s, activityTypeNames())
	}
	return t, nil
}

func newActivityLogCmd(app *App) *cobra.Command {
	var (
		contact, typ, description, date string
		dealID                          int64
		minutes                         int
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log an activity with a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			contactID, err := resolveContactID(ctx, app, contact)
			if err != nil {
				return err
			}
			t, err := parseActivityType(typ)
			if err != nil {
				return err
			}

			a := domain.Activity{
				Type:        t,
				Description: description,
				Date:        app.now(),
				ContactID:   contactID,
			}
			if date != "" {
				when, err := parseActivityDate(date)
				if err != nil {
					return err
				}
				a.Date = when
			}
			if cmd.Flags().Changed("minutes") {
				a.DurationMinutes = &minutes
			}
			if dealID != 0 {
				a.DealID = &dealID
			}

			logged, err := app.Activities.Log(ctx, a)
			if err != nil {
				return err
			}
			name := contact
			if c, err := app.Contacts.Get(ctx, contactID); err == nil {
				name = c.Name
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActivityLogged(logged, name))
			return nil
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "Contact (id, email or name)")
	cmd.Flags().StringVarP(&typ, "type", "t", string(domain.ActivityCall), "Type: "+activityTypeNames())
	cmd.Flags().StringVarP(&description, "message", "m", "", "What happened")
	cmd.Flags().StringVar(&date, "date", "", "When (YYYY-MM-DD or YYYY-MM-DD HH:MM, default now)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Duration in minutes")
	cmd.Flags().Int64Var(&dealID, "deal", 0, "Related deal id")
	_ = cmd.MarkFlagRequired("contact")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func parseActivityDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", s)
}

func newActivityListCmd(app *App) *cobra.Command {
	var (
		typ, contact, sortBy string
		dealID               int64
		limit                int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			f := service.ActivityListFilter{DealID: dealID, Limit: limit, Sort: service.ActivitySort(sortBy)}
			switch f.Sort {
			case service.SortActivitiesRecent, service.SortActivitiesOldest, service.SortActivitiesByType:
			default:
				return fmt.Errorf("invalid sort %q (recent, oldest or type)", sortBy)
			}
			if typ != "" {
				t, err := parseActivityType(typ)
				if err != nil {
					return err
				}
				f.Type = t
			}
			if contact != "" {
				id, err := resolveContactID(ctx, app, contact)
				if err != nil {
					return err
				}
				f.ContactID = id
			}

			list, err := app.Activities.List(ctx, f)
			if err != nil {
				return err
			}
			names, err := loadContactNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActivityList(list, names, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Only this type")
	cmd.Flags().StringVar(&contact, "contact", "", "Only this contact (id, email or name)")
	cmd.Flags().Int64Var(&dealID, "deal", 0, "Only this deal")
	cmd.Flags().StringVar(&sortBy, "sort", string(service.SortActivitiesRecent), "Sort by recent, oldest or type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows (-1 for all)")

	return cmd
}

func newActivityRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete an activity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("activity", args[0])
			if err != nil {
				return err
			}
			if err := app.Activities.Delete(context.Background(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed activity #%d\n", id)
			return nil
		},
	}
}
