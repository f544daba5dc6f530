package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

func FormatActivityList(activities []domain.Activity, contactNames map[int64]string, now time.Time) string {
	if len(activities) == 0 {
		return Dim("No activities found.") + "\n"
	}

	headers := []string{"ID", "WHEN", "TYPE", "DESCRIPTION", "CONTACT", "DEAL", "DURATION"}
	rows := make([][]string, 0, len(activities))
	var minutes int
	for _, a := range activities {
		deal := Dim("—")
		if a.DealID != nil {
			deal = fmt.Sprintf("#%d", *a.DealID)
		}
		dur := Dim("—")
		if a.DurationMinutes != nil {
			dur = FormatMinutes(*a.DurationMinutes)
			minutes += *a.DurationMinutes
		}
		rows = append(rows, []string{
			Dim(strconv.FormatInt(a.ID, 10)),
			RelativeTimeFrom(a.Date, now),
			ActivityLabel(a.Type),
			Truncate(a.Description, 40),
			Truncate(contactName(contactNames, a.ContactID), 20),
			deal,
			dur,
		})
	}

	summary := pluralize(len(activities), "activity")
	if minutes > 0 {
		summary += " · " + FormatMinutes(minutes) + " logged"
	}
	return RenderTable(headers, rows, 6) + "\n" + Dim(summary) + "\n"
}

// FormatTimeline renders activities as a compact one-per-line feed. When
// contactNames is nil the contact column is omitted.
func FormatTimeline(activities []domain.Activity, contactNames map[int64]string, now time.Time) string {
	var b strings.Builder
	for _, a := range activities {
		line := fmt.Sprintf("%s %s", ActivityIcon(a.Type), a.Description)
		if contactNames != nil {
			line += Dim(" · " + contactName(contactNames, a.ContactID))
		}
		if a.DurationMinutes != nil {
			line += Dim(" · " + FormatMinutes(*a.DurationMinutes))
		}
		fmt.Fprintf(&b, "%s  %s\n", line, Dim(RelativeTimeFrom(a.Date, now)))
	}
	return b.String()
}

// FormatActivityLogged confirms a newly logged activity.
func FormatActivityLogged(a domain.Activity, contact string) string {
	return fmt.Sprintf("%s %s %s %s\n",
		StyleGreen.Render("Logged"), ActivityLabel(a.Type),
		Dim("with"), Bold(contact))
}
