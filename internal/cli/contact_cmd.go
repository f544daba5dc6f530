package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/spf13/cobra"
)

func newContactCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contact",
		Aliases: []string{"contacts"},
		Short:   "Manage contacts",
	}

	cmd.AddCommand(
		newContactAddCmd(app),
		newContactListCmd(app),
		newContactShowCmd(app),
		newContactEditCmd(app),
		newContactRemoveCmd(app),
	)

	return cmd
}

func newContactAddCmd(app *App) *cobra.Command {
	var c domain.Contact
	var tags string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Tags = splitTags(tags)
			created, err := app.Contacts.Create(context.Background(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created contact #%d %s\n", created.ID, formatter.Bold(created.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&c.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&c.Company, "company", "", "Company")
	cmd.Flags().StringVar(&c.Position, "position", "", "Job title")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newContactListCmd(app *App) *cobra.Command {
	var search, sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			by := service.ContactSort(sortBy)
			switch by {
			case service.SortContactsByName, service.SortContactsByCompany, service.SortContactsByRecent:
			default:
				return fmt.Errorf("invalid sort %q (name, company or recent)", sortBy)
			}
			contacts, err := app.Contacts.List(context.Background(), search, by)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatContactList(contacts, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name, email, company or phone")
	cmd.Flags().StringVar(&sortBy, "sort", string(service.SortContactsByName), "Sort by name, company or recent")

	return cmd
}

func newContactShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show CONTACT",
		Short: "Show a contact with its deals and recent activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveContactID(ctx, app, args[0])
			if err != nil {
				return err
			}
			c, err := app.Contacts.Get(ctx, id)
			if err != nil {
				return err
			}
			deals, err := app.Contacts.Deals(ctx, id)
			if err != nil {
				return err
			}
			acts, err := app.Activities.List(ctx, service.ActivityListFilter{
				ContactID: id, Sort: service.SortActivitiesRecent, Limit: 10,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatContact(c, deals, acts, app.Stages, app.now()))
			return nil
		},
	}
}

func newContactEditCmd(app *App) *cobra.Command {
	var name, email, phone, company, position, tags string

	cmd := &cobra.Command{
		Use:   "edit CONTACT",
		Short: "Update contact fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveContactID(ctx, app, args[0])
			if err != nil {
				return err
			}

			var patch domain.ContactPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("phone") {
				patch.Phone = &phone
			}
			if flags.Changed("company") {
				patch.Company = &company
			}
			if flags.Changed("position") {
				patch.Position = &position
			}
			if flags.Changed("tags") {
				t := splitTags(tags)
				patch.Tags = &t
			}

			updated, err := app.Contacts.Update(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated contact #%d %s\n", updated.ID, formatter.Bold(updated.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&company, "company", "", "Company")
	cmd.Flags().StringVar(&position, "position", "", "Job title")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags (replaces existing)")

	return cmd
}

func newContactRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove CONTACT",
		Aliases: []string{"rm"},
		Short:   "Delete a contact and its activities",
		Long:    "Delete a contact and its activities. Contacts that still have deals cannot be removed.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveContactID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Contacts.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed contact #%d\n", id)
			return nil
		},
	}
}
