package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Deal is a tracked sales opportunity tied to one contact and one stage.
type Deal struct {
	ID                int64
	Title             string
	Value             float64
	StageID           string
	Probability       int
	ContactID         int64
	ExpectedCloseDate *time.Time
	Notes             string
	Tags              []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DealInput carries the fields of a deal being created. StageID and
// Probability are optional; see ToDeal.
type DealInput struct {
	Title             string
	Value             float64
	StageID           string
	Probability       *int
	ContactID         int64
	ExpectedCloseDate *time.Time
	Notes             string
	Tags              []string
}

// DealPatch is a partial update. Nil fields are left unchanged.
type DealPatch struct {
	Title             *string
	Value             *float64
	StageID           *string
	Probability       *int
	ContactID         *int64
	ExpectedCloseDate *time.Time
	ClearCloseDate    bool
	Notes             *string
	Tags              *[]string
}

// Clone returns a deep copy of the deal.
func (d Deal) Clone() Deal {
	out := d
	if d.ExpectedCloseDate != nil {
		t := *d.ExpectedCloseDate
		out.ExpectedCloseDate = &t
	}
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	return out
}

// WeightedValue is the deal value scaled by its win probability.
func (d Deal) WeightedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}

// Validate checks the deal against the stage catalog and returns a
// normalized copy (trimmed text, de-duplicated tags). All offending fields
// are reported together in a *ValidationError.
func (d Deal) Validate(stages *StageRegistry) (Deal, error) {
	out := d.Clone()
	out.Title = strings.TrimSpace(out.Title)
	out.Notes = strings.TrimSpace(out.Notes)
	out.Tags = normalizeTags(out.Tags)

	v := validationErrors{entity: "deal"}
	if out.Title == "" {
		v.add("title", "title is required")
	}
	if math.IsNaN(out.Value) || math.IsInf(out.Value, 0) || out.Value <= 0 {
		v.add("value", "value must be greater than zero")
	}
	if out.ContactID <= 0 {
		v.add("contact_id", "contact is required")
	}
	if out.Probability < 0 || out.Probability > 100 {
		v.add("probability", "probability must be between 0 and 100, got %d", out.Probability)
	}
	if !stages.Has(out.StageID) {
		v.add("stage", "unknown stage %q", out.StageID)
	}
	if err := v.err(); err != nil {
		return Deal{}, err
	}
	return out, nil
}

// ApplyStageTransition returns a copy of the deal moved into target, with
// its probability overwritten by the target's default. Any manually set
// probability is discarded. Moving into the current stage returns an
// equivalent copy.
func (d Deal) ApplyStageTransition(stages *StageRegistry, target string) (Deal, error) {
	prob, err := stages.DefaultProbabilityFor(target)
	if err != nil {
		return Deal{}, err
	}
	out := d.Clone()
	if target == d.StageID {
		return out, nil
	}
	out.StageID = target
	out.Probability = prob
	return out, nil
}

// Overlay returns a copy of d with the set fields of stored laid over it.
// Zero values in stored leave d's field alone, so a store that echoes only
// part of the record cannot blank the rest. d's ID wins unless it has none.
func (d Deal) Overlay(stored Deal) Deal {
	out := d.Clone()
	if out.ID == 0 {
		out.ID = stored.ID
	}
	if stored.Title != "" {
		out.Title = stored.Title
	}
	if stored.Value != 0 {
		out.Value = stored.Value
	}
	if stored.StageID != "" {
		out.StageID = stored.StageID
	}
	if stored.Probability != 0 {
		out.Probability = stored.Probability
	}
	if stored.ContactID != 0 {
		out.ContactID = stored.ContactID
	}
	if stored.ExpectedCloseDate != nil {
		t := *stored.ExpectedCloseDate
		out.ExpectedCloseDate = &t
	}
	if stored.Notes != "" {
		out.Notes = stored.Notes
	}
	if stored.Tags != nil {
		out.Tags = append([]string(nil), stored.Tags...)
	}
	if !stored.CreatedAt.IsZero() {
		out.CreatedAt = stored.CreatedAt
	}
	if !stored.UpdatedAt.IsZero() {
		out.UpdatedAt = stored.UpdatedAt
	}
	return out
}

// WithPatch returns a copy of the deal with the patch applied. The result
// is not validated.
func (d Deal) WithPatch(p DealPatch) Deal {
	out := d.Clone()
	out.Title = patched(out.Title, p.Title)
	out.Value = patched(out.Value, p.Value)
	out.StageID = patched(out.StageID, p.StageID)
	out.Probability = patched(out.Probability, p.Probability)
	out.ContactID = patched(out.ContactID, p.ContactID)
	out.Notes = patched(out.Notes, p.Notes)
	if p.ExpectedCloseDate != nil {
		t := *p.ExpectedCloseDate
		out.ExpectedCloseDate = &t
	}
	if p.ClearCloseDate {
		out.ExpectedCloseDate = nil
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	}
	return out
}

// ToDeal builds an unsaved deal. An empty stage defaults to the first stage
// of the catalog and a nil probability to the stage's default.
func (in DealInput) ToDeal(stages *StageRegistry) Deal {
	d := Deal{
		Title:     in.Title,
		Value:     in.Value,
		StageID:   in.StageID,
		ContactID: in.ContactID,
		Notes:     in.Notes,
	}
	if d.StageID == "" {
		d.StageID = stages.First().ID
	}
	if in.Probability != nil {
		d.Probability = *in.Probability
	} else if prob, err := stages.DefaultProbabilityFor(d.StageID); err == nil {
		d.Probability = prob
	}
	if in.ExpectedCloseDate != nil {
		t := *in.ExpectedCloseDate
		d.ExpectedCloseDate = &t
	}
	if in.Tags != nil {
		d.Tags = append([]string(nil), in.Tags...)
	}
	return d
}

// StagePatch returns the patch that persists a stage transition: stage and
// probability only.
func StagePatch(d Deal) DealPatch {
	stage := d.StageID
	prob := d.Probability
	return DealPatch{StageID: &stage, Probability: &prob}
}

// FullPatch returns a patch carrying every editable field of d.
func FullPatch(d Deal) DealPatch {
	c := d.Clone()
	p := DealPatch{
		Title:       &c.Title,
		Value:       &c.Value,
		StageID:     &c.StageID,
		Probability: &c.Probability,
		ContactID:   &c.ContactID,
		Notes:       &c.Notes,
		Tags:        &c.Tags,
	}
	if c.ExpectedCloseDate != nil {
		p.ExpectedCloseDate = c.ExpectedCloseDate
	} else {
		p.ClearCloseDate = true
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p DealPatch) IsEmpty() bool {
	return p.Title == nil && p.Value == nil && p.StageID == nil && p.Probability == nil &&
		p.ContactID == nil && p.ExpectedCloseDate == nil && !p.ClearCloseDate &&
		p.Notes == nil && p.Tags == nil
}

// String renders a short description used in log lines.
func (d Deal) String() string {
	return fmt.Sprintf("deal #%d %q [%s %d%%]", d.ID, d.Title, d.StageID, d.Probability)
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
