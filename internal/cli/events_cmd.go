package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexanderramin/dealflow/internal/cli/formatter"
	"github.com/alexanderramin/dealflow/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow pipeline events on the NATS bus",
	}
	cmd.AddCommand(newEventsTailCmd(app))
	return cmd
}

func newEventsTailCmd(app *App) *cobra.Command {
	var url, prefix string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print deal events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config != nil {
				if !cmd.Flags().Changed("url") {
					url = app.Config.Events.NATSURL
				}
				if !cmd.Flags().Changed("prefix") {
					prefix = app.Config.Events.SubjectPrefix
				}
			}
			if url == "" {
				return fmt.Errorf("no event bus configured (set events.nats_url or pass --url)")
			}

			nc, err := nats.Connect(url, nats.Name("dealflow-tail"))
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", url, err)
			}
			defer nc.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", formatter.Dim("Listening on "+url+" (ctrl+c to stop)"))
			return tailEvents(ctx, nc, prefix, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS server URL (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", events.DefaultPrefix, "Subject prefix")

	return cmd
}

func tailEvents(ctx context.Context, nc *nats.Conn, prefix string, w io.Writer) error {
	return events.Tail(ctx, nc, prefix, func(m events.Message) {
		fmt.Fprintln(w, formatEvent(m))
	})
}

// formatEvent renders one event as a single log-style line.
func formatEvent(m events.Message) string {
	ev := m.Event
	at := ev.At.Local().Format("15:04:05")
	subject := m.Subject
	if i := strings.Index(subject, ".deal."); i >= 0 {
		subject = subject[i+1:]
	}

	if ev.Error != "" {
		return fmt.Sprintf("%s %s %s deal #%d %s: %s",
			formatter.Dim(at), formatter.StyleRed.Render(subject), ev.Op, ev.DealID, ev.Kind, ev.Error)
	}
	if ev.Deal == nil {
		return fmt.Sprintf("%s %s deal #%d", formatter.Dim(at), subject, ev.DealID)
	}
	d := ev.Deal
	return fmt.Sprintf("%s %s #%d %s  %s  %s %d%%",
		formatter.Dim(at), formatter.StyleBlue.Render(subject), d.ID, formatter.Bold(d.Title),
		formatter.Currency(d.Value), d.Stage, d.Probability)
}
