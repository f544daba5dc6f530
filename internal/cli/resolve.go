package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

// parseID parses a positive record id.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

// resolveContactID accepts a numeric id, an email, or a name. Names match
// exactly (case-insensitive) first, then by unique substring.
func resolveContactID(ctx context.Context, app *App, input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("contact is required")
	}
	if id, err := parseID("contact", input); err == nil {
		if _, err := app.Contacts.Get(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}

	contacts, err := app.Contacts.List(ctx, input, "")
	if err != nil {
		return 0, err
	}

	// 1. Exact email or name
	for _, c := range contacts {
		if strings.EqualFold(c.Email, input) || strings.EqualFold(c.Name, input) {
			return c.ID, nil
		}
	}

	// 2. Unique partial match
	switch len(contacts) {
	case 0:
		return 0, fmt.Errorf("contact not found: %q", input)
	case 1:
		return contacts[0].ID, nil
	default:
		return 0, fmt.Errorf("contact %q is ambiguous (%d matches)", input, len(contacts))
	}
}

// resolveStage accepts a stage id or display name.
func resolveStage(stages *domain.StageRegistry, input string) (domain.Stage, error) {
	input = strings.TrimSpace(input)
	if s, err := stages.ByID(input); err == nil {
		return s, nil
	}
	for _, s := range stages.All() {
		if strings.EqualFold(s.ID, input) || strings.EqualFold(s.Name, input) {
			return s, nil
		}
	}
	ids := make([]string, 0, stages.Len())
	for _, s := range stages.All() {
		ids = append(ids, s.ID)
	}
	return domain.Stage{}, fmt.Errorf("%w: %q (one of %s)", domain.ErrUnknownStage, input, strings.Join(ids, ", "))
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return &t, nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// contactNames maps ids to names for display.
func contactNames(contacts []domain.Contact) map[int64]string {
	names := make(map[int64]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}
	return names
}

func loadContactNames(ctx context.Context, app *App) (map[int64]string, error) {
	contacts, err := app.Contacts.List(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return contactNames(contacts), nil
}
