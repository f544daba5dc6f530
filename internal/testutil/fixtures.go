package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/google/uuid"
)

// Contact options
type ContactOption func(*domain.Contact)

func WithCompany(company string) ContactOption {
	return func(c *domain.Contact) {
		c.Company = company
	}
}

func WithEmail(email string) ContactOption {
	return func(c *domain.Contact) {
		c.Email = email
	}
}

func WithPhone(phone string) ContactOption {
	return func(c *domain.Contact) {
		c.Phone = phone
	}
}

func WithContactCreatedAt(t time.Time) ContactOption {
	return func(c *domain.Contact) {
		c.CreatedAt = t
	}
}

// NewTestContact builds an unsaved contact with a unique email address.
func NewTestContact(name string, opts ...ContactOption) *domain.Contact {
	c := &domain.Contact{
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deal options
type DealOption func(*domain.Deal)

func WithStage(stageID string, probability int) DealOption {
	return func(d *domain.Deal) {
		d.StageID = stageID
		d.Probability = probability
	}
}

func WithValue(v float64) DealOption {
	return func(d *domain.Deal) {
		d.Value = v
	}
}

func WithCloseDate(t time.Time) DealOption {
	return func(d *domain.Deal) {
		d.ExpectedCloseDate = &t
	}
}

func WithTags(tags ...string) DealOption {
	return func(d *domain.Deal) {
		d.Tags = tags
	}
}

func WithDealCreatedAt(t time.Time) DealOption {
	return func(d *domain.Deal) {
		d.CreatedAt = t
	}
}

// NewTestDeal builds an unsaved lead-stage deal worth 1000.
func NewTestDeal(contactID int64, title string, opts ...DealOption) *domain.Deal {
	d := &domain.Deal{
		Title:       title,
		Value:       1000,
		StageID:     "lead",
		Probability: 10,
		ContactID:   contactID,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Activity options
type ActivityOption func(*domain.Activity)

func WithActivityType(t domain.ActivityType) ActivityOption {
	return func(a *domain.Activity) {
		a.Type = t
	}
}

func WithDuration(minutes int) ActivityOption {
	return func(a *domain.Activity) {
		a.DurationMinutes = &minutes
	}
}

func WithDealID(id int64) ActivityOption {
	return func(a *domain.Activity) {
		a.DealID = &id
	}
}

func WithActivityDate(t time.Time) ActivityOption {
	return func(a *domain.Activity) {
		a.Date = t
	}
}

// NewTestActivity builds an unsaved call dated now.
func NewTestActivity(contactID int64, description string, opts ...ActivityOption) *domain.Activity {
	now := time.Now().UTC().Truncate(time.Second)
	a := &domain.Activity{
		Type:        domain.ActivityCall,
		Description: description,
		Date:        now,
		ContactID:   contactID,
		CreatedAt:   now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
