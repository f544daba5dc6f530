package domain

import (
	"strings"
	"time"
)

// Activity is a logged interaction with a contact, optionally tied to a deal.
type Activity struct {
	ID              int64
	Type            ActivityType
	Description     string
	Date            time.Time
	DurationMinutes *int
	ContactID       int64
	DealID          *int64
	CreatedAt       time.Time
}

func (a Activity) Validate() (Activity, error) {
	out := a
	out.Description = strings.TrimSpace(a.Description)
	if out.Type == "" {
		out.Type = ActivityCall
	}

	v := validationErrors{entity: "activity"}
	if !ValidActivityTypes[out.Type] {
		v.add("type", "unknown activity type %q", out.Type)
	}
	if out.Description == "" {
		v.add("description", "description is required")
	}
	if out.Date.IsZero() {
		v.add("date", "date is required")
	}
	if out.ContactID <= 0 {
		v.add("contact_id", "contact is required")
	}
	if out.DurationMinutes != nil && *out.DurationMinutes <= 0 {
		v.add("duration", "duration must be a positive number of minutes")
	}
	if out.DealID != nil && *out.DealID <= 0 {
		v.add("deal_id", "deal id must be positive")
	}
	if err := v.err(); err != nil {
		return Activity{}, err
	}
	return out, nil
}

// ActivityPatch is a partial activity update.
type ActivityPatch struct {
	Type            *ActivityType
	Description     *string
	Date            *time.Time
	DurationMinutes *int
	ContactID       *int64
	DealID          *int64
}

func (a Activity) WithPatch(p ActivityPatch) Activity {
	out := a
	if p.Type != nil {
		out.Type = *p.Type
	}
	out.Description = patched(a.Description, p.Description)
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.DurationMinutes != nil {
		d := *p.DurationMinutes
		out.DurationMinutes = &d
	}
	out.ContactID = patched(a.ContactID, p.ContactID)
	if p.DealID != nil {
		id := *p.DealID
		out.DealID = &id
	}
	return out
}
