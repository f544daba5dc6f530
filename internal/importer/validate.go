package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

const dateLayout = "2006-01-02"

// ValidateWorkspace checks the whole file before anything is written and
// returns every problem found.
func ValidateWorkspace(ws *Workspace, stages *domain.StageRegistry) []error {
	var errs []error

	contactRefs := make(map[string]bool)
	errs = append(errs, validateContacts(ws.Contacts, contactRefs)...)

	dealRefs := make(map[string]bool)
	errs = append(errs, validateDeals(ws.Deals, stages, contactRefs, dealRefs)...)

	errs = append(errs, validateActivities(ws.Activities, contactRefs, dealRefs)...)

	return errs
}

func validateContacts(contacts []ContactImport, refs map[string]bool) []error {
	var errs []error
	for i, c := range contacts {
		prefix := fmt.Sprintf("contacts[%d]", i)
		if c.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[c.Ref] {
			errs = append(errs, fmt.Errorf("%s: duplicate ref %q", prefix, c.Ref))
		}
		refs[c.Ref] = true

		if _, err := toContact(c).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}
	return errs
}

func validateDeals(deals []DealImport, stages *domain.StageRegistry, contactRefs, refs map[string]bool) []error {
	var errs []error
	for i, d := range deals {
		prefix := fmt.Sprintf("deals[%d]", i)
		if d.Ref != "" {
			if refs[d.Ref] {
				errs = append(errs, fmt.Errorf("%s: duplicate ref %q", prefix, d.Ref))
			}
			refs[d.Ref] = true
		}
		if !contactRefs[d.ContactRef] {
			errs = append(errs, fmt.Errorf("%s.contact_ref %q does not match any contact", prefix, d.ContactRef))
		}
		closeDate, err := parseOptionalDate(d.ExpectedCloseDate)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.expected_close_date: invalid date format %q (expected YYYY-MM-DD)", prefix, *d.ExpectedCloseDate))
		}

		deal := toDeal(d, stages, closeDate)
		deal.ContactID = 1 // resolved on insert
		if _, err := deal.Validate(stages); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}
	return errs
}

func validateActivities(activities []ActivityImport, contactRefs, dealRefs map[string]bool) []error {
	var errs []error
	for i, a := range activities {
		prefix := fmt.Sprintf("activities[%d]", i)
		if !contactRefs[a.ContactRef] {
			errs = append(errs, fmt.Errorf("%s.contact_ref %q does not match any contact", prefix, a.ContactRef))
		}
		if a.DealRef != "" && !dealRefs[a.DealRef] {
			errs = append(errs, fmt.Errorf("%s.deal_ref %q does not match any deal", prefix, a.DealRef))
		}
		date, err := parseActivityDate(a.Date)
		if a.Date != "" && err != nil {
			errs = append(errs, fmt.Errorf("%s.date: invalid date %q (expected YYYY-MM-DD or RFC 3339)", prefix, a.Date))
			continue
		}

		act := toActivity(a, date)
		act.ContactID = 1
		if _, err := act.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}
	return errs
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseActivityDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, s)
}
