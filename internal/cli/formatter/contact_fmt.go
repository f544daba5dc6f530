package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

func FormatContactList(contacts []domain.Contact, now time.Time) string {
	if len(contacts) == 0 {
		return Dim("No contacts found.") + "\n"
	}

	headers := []string{"ID", "NAME", "COMPANY", "EMAIL", "PHONE", "LAST CONTACT"}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		last := Dim("never")
		if c.LastContactedAt != nil {
			last = RelativeTimeFrom(*c.LastContactedAt, now)
		}
		rows = append(rows, []string{
			Dim(strconv.FormatInt(c.ID, 10)),
			Bold(Truncate(c.Name, 28)),
			Or(Truncate(c.Company, 24)),
			c.Email,
			Or(c.Phone),
			last,
		})
	}
	return RenderTable(headers, rows) + "\n" + Dim(pluralize(len(contacts), "contact")) + "\n"
}

// FormatContact renders a contact card followed by its deals and latest
// activities.
func FormatContact(c domain.Contact, deals []domain.Deal, activities []domain.Activity, stages *domain.StageRegistry, now time.Time) string {
	var b strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-14s", label)), value)
	}
	field("Email", c.Email)
	field("Phone", Or(c.Phone))
	field("Company", Or(c.Company))
	field("Position", Or(c.Position))
	if len(c.Tags) > 0 {
		field("Tags", Tags(c.Tags))
	}
	field("Added", HumanDate(c.CreatedAt))
	if c.LastContactedAt != nil {
		field("Last contact", RelativeTimeFrom(*c.LastContactedAt, now))
	} else {
		field("Last contact", Dim("never"))
	}

	b.WriteString("\n")
	b.WriteString(Header("Deals"))
	b.WriteString("\n")
	if len(deals) == 0 {
		b.WriteString(Dim("No deals yet."))
		b.WriteString("\n")
	}
	var open float64
	for _, d := range deals {
		fmt.Fprintf(&b, "%s %s  %s  %s\n",
			Dim(fmt.Sprintf("#%-4d", d.ID)), Truncate(d.Title, 30),
			stageLabel(stages, d.StageID), Currency(d.Value))
		if !stages.IsTerminal(d.StageID) {
			open += d.Value
		}
	}
	if len(deals) > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("Open value"), Bold(Currency(open)))
	}

	if len(activities) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Activity"))
		b.WriteString("\n")
		b.WriteString(FormatTimeline(activities, nil, now))
	}

	title := fmt.Sprintf("%s  %s", Initials(c.Name), c.Name)
	return RenderBox(title, strings.TrimRight(b.String(), "\n")) + "\n"
}
