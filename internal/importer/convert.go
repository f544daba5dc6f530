package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/google/uuid"
)

type ConvertedContact struct {
	Ref     string
	Contact domain.Contact
}

// ConvertedDeal carries the ref of its contact; the contact id is assigned
// when the contact is inserted.
type ConvertedDeal struct {
	Ref        string
	ContactRef string
	Deal       domain.Deal
}

type ConvertedActivity struct {
	ContactRef string
	DealRef    string
	Activity   domain.Activity
}

type Converted struct {
	Contacts   []ConvertedContact
	Deals      []ConvertedDeal
	Activities []ConvertedActivity
}

// Convert transforms a validated Workspace into domain objects ready for
// persistence. Call ValidateWorkspace first; Convert assumes it passed.
func Convert(ws *Workspace, stages *domain.StageRegistry) (*Converted, error) {
	out := &Converted{}
	for _, c := range ws.Contacts {
		out.Contacts = append(out.Contacts, ConvertedContact{Ref: c.Ref, Contact: toContact(c)})
	}
	for _, d := range ws.Deals {
		closeDate, err := parseOptionalDate(d.ExpectedCloseDate)
		if err != nil {
			return nil, fmt.Errorf("parsing expected_close_date of %q: %w", d.Title, err)
		}
		ref := d.Ref
		if ref == "" {
			ref = uuid.New().String()
		}
		out.Deals = append(out.Deals, ConvertedDeal{Ref: ref, ContactRef: d.ContactRef, Deal: toDeal(d, stages, closeDate)})
	}
	for _, a := range ws.Activities {
		date, err := parseActivityDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing date of %q: %w", a.Description, err)
		}
		out.Activities = append(out.Activities, ConvertedActivity{
			ContactRef: a.ContactRef,
			DealRef:    a.DealRef,
			Activity:   toActivity(a, date),
		})
	}
	return out, nil
}

func toContact(c ContactImport) domain.Contact {
	return domain.Contact{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Company:  c.Company,
		Position: c.Position,
		Tags:     c.Tags,
	}
}

func toDeal(d DealImport, stages *domain.StageRegistry, closeDate *time.Time) domain.Deal {
	deal := domain.DealInput{
		Title:       d.Title,
		Value:       d.Value,
		StageID:     d.Stage,
		Probability: d.Probability,
	}.ToDeal(stages)
	deal.ExpectedCloseDate = closeDate
	deal.Notes = d.Notes
	deal.Tags = d.Tags
	return deal
}

func toActivity(a ActivityImport, date time.Time) domain.Activity {
	return domain.Activity{
		Type:            domain.ActivityType(a.Type),
		Description:     a.Description,
		Date:            date,
		DurationMinutes: a.DurationMinutes,
	}
}
