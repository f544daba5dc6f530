package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

// The record API speaks in "_c"-suffixed custom fields next to a handful of
// system fields (Id, Name, Tags, CreatedOn). Everything in this file converts
// between that shape and the domain types; nothing else in the module sees
// wire names.

const wireDateLayout = "2006-01-02"

// LookupID is a reference to another record. The API may render it as a bare
// number, a numeric string, or a lookup object {"Id": 3, "Name": "..."}.
type LookupID int64

func (l *LookupID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = 0
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			ID json.RawMessage `json:"Id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("decoding lookup object: %w", err)
		}
		return l.UnmarshalJSON(obj.ID)
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*l = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("lookup id %q is not numeric", s)
		}
		*l = LookupID(n)
		return nil
	default:
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("decoding lookup id: %w", err)
		}
		*l = LookupID(n)
		return nil
	}
}

// Envelope is the response body of every record API call.
type Envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Data    any                `json:"data,omitempty"`
	Errors  []FieldErrorRecord `json:"errors,omitempty"`
}

// FieldErrorRecord is one rejected field in a failed write.
type FieldErrorRecord struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

type rawEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Errors  []FieldErrorRecord `json:"errors"`
}

// ValidationEnvelope renders a *domain.ValidationError for the wire.
func ValidationEnvelope(ve *domain.ValidationError) Envelope {
	env := Envelope{Message: ve.Error()}
	for _, f := range ve.Fields {
		env.Errors = append(env.Errors, FieldErrorRecord{FieldLabel: f.Field, Message: f.Message})
	}
	return env
}

func validationFromEnvelope(entity string, env rawEnvelope) *domain.ValidationError {
	fields := make([]domain.FieldError, 0, len(env.Errors))
	for _, e := range env.Errors {
		fields = append(fields, domain.FieldError{Field: e.FieldLabel, Message: e.Message})
	}
	if len(fields) == 0 {
		fields = append(fields, domain.FieldError{Field: "record", Message: env.Message})
	}
	return domain.NewValidationError(entity, fields...)
}

// DealRecord is a deal in wire shape.
type DealRecord struct {
	ID                int64    `json:"Id,omitempty"`
	Name              string   `json:"Name"`
	Tags              string   `json:"Tags"`
	Title             string   `json:"title_c"`
	Value             float64  `json:"value_c"`
	Stage             string   `json:"stage_c"`
	Probability       int      `json:"probability_c"`
	ContactID         LookupID `json:"contactId_c"`
	ExpectedCloseDate string   `json:"expectedCloseDate_c,omitempty"`
	Notes             string   `json:"notes_c"`
	CreatedAt         string   `json:"createdAt_c,omitempty"`
	ModifiedOn        string   `json:"ModifiedOn,omitempty"`
}

// DealPatchRecord is a partial deal update. An empty expectedCloseDate_c
// clears the date.
type DealPatchRecord struct {
	Name              *string   `json:"Name,omitempty"`
	Tags              *string   `json:"Tags,omitempty"`
	Title             *string   `json:"title_c,omitempty"`
	Value             *float64  `json:"value_c,omitempty"`
	Stage             *string   `json:"stage_c,omitempty"`
	Probability       *int      `json:"probability_c,omitempty"`
	ContactID         *LookupID `json:"contactId_c,omitempty"`
	ExpectedCloseDate *string   `json:"expectedCloseDate_c,omitempty"`
	Notes             *string   `json:"notes_c,omitempty"`
}

func DealToRecord(d domain.Deal) DealRecord {
	r := DealRecord{
		ID:          d.ID,
		Name:        d.Title,
		Tags:        strings.Join(d.Tags, ","),
		Title:       d.Title,
		Value:       d.Value,
		Stage:       d.StageID,
		Probability: d.Probability,
		ContactID:   LookupID(d.ContactID),
		Notes:       d.Notes,
		CreatedAt:   formatTime(d.CreatedAt),
		ModifiedOn:  formatTime(d.UpdatedAt),
	}
	if d.ExpectedCloseDate != nil {
		r.ExpectedCloseDate = d.ExpectedCloseDate.Format(wireDateLayout)
	}
	return r
}

// ToDeal normalizes the record. The title falls back to Name when the
// custom field is blank.
func (r DealRecord) ToDeal() (domain.Deal, error) {
	d := domain.Deal{
		ID:          r.ID,
		Title:       domain.FirstNonEmpty(r.Title, r.Name),
		Value:       r.Value,
		StageID:     r.Stage,
		Probability: r.Probability,
		ContactID:   int64(r.ContactID),
		Notes:       r.Notes,
		Tags:        splitWireTags(r.Tags),
	}
	var err error
	if d.ExpectedCloseDate, err = parseWireDate(r.ExpectedCloseDate); err != nil {
		return domain.Deal{}, fmt.Errorf("expectedCloseDate_c: %w", err)
	}
	if d.CreatedAt, err = parseWireTime(r.CreatedAt); err != nil {
		return domain.Deal{}, fmt.Errorf("createdAt_c: %w", err)
	}
	if d.UpdatedAt, err = parseWireTime(r.ModifiedOn); err != nil {
		return domain.Deal{}, fmt.Errorf("ModifiedOn: %w", err)
	}
	return d, nil
}

func DealPatchToRecord(p domain.DealPatch) DealPatchRecord {
	r := DealPatchRecord{
		Title:       p.Title,
		Value:       p.Value,
		Stage:       p.StageID,
		Probability: p.Probability,
		Notes:       p.Notes,
	}
	if p.Title != nil {
		r.Name = p.Title
	}
	if p.Tags != nil {
		joined := strings.Join(*p.Tags, ",")
		r.Tags = &joined
	}
	if p.ContactID != nil {
		id := LookupID(*p.ContactID)
		r.ContactID = &id
	}
	switch {
	case p.ClearCloseDate:
		empty := ""
		r.ExpectedCloseDate = &empty
	case p.ExpectedCloseDate != nil:
		s := p.ExpectedCloseDate.Format(wireDateLayout)
		r.ExpectedCloseDate = &s
	}
	return r
}

func (r DealPatchRecord) ToPatch() (domain.DealPatch, error) {
	p := domain.DealPatch{
		Title:       r.Title,
		Value:       r.Value,
		StageID:     r.Stage,
		Probability: r.Probability,
		Notes:       r.Notes,
	}
	if p.Title == nil && r.Name != nil {
		p.Title = r.Name
	}
	if r.Tags != nil {
		tags := splitWireTags(*r.Tags)
		p.Tags = &tags
	}
	if r.ContactID != nil {
		id := int64(*r.ContactID)
		p.ContactID = &id
	}
	if r.ExpectedCloseDate != nil {
		if *r.ExpectedCloseDate == "" {
			p.ClearCloseDate = true
		} else {
			t, err := parseWireDate(*r.ExpectedCloseDate)
			if err != nil {
				return domain.DealPatch{}, fmt.Errorf("expectedCloseDate_c: %w", err)
			}
			p.ExpectedCloseDate = t
		}
	}
	return p, nil
}

// ContactRecord is a contact in wire shape.
type ContactRecord struct {
	ID              int64  `json:"Id,omitempty"`
	Name            string `json:"Name"`
	Tags            string `json:"Tags"`
	Email           string `json:"email_c"`
	Phone           string `json:"phone_c"`
	Company         string `json:"company_c"`
	Position        string `json:"position_c"`
	CreatedAt       string `json:"createdAt_c,omitempty"`
	LastContactedAt string `json:"lastContactedAt_c,omitempty"`
}

type ContactPatchRecord struct {
	Name     *string `json:"Name,omitempty"`
	Tags     *string `json:"Tags,omitempty"`
	Email    *string `json:"email_c,omitempty"`
	Phone    *string `json:"phone_c,omitempty"`
	Company  *string `json:"company_c,omitempty"`
	Position *string `json:"position_c,omitempty"`

	LastContactedAt *string `json:"lastContactedAt_c,omitempty"`
}

func ContactToRecord(c domain.Contact) ContactRecord {
	r := ContactRecord{
		ID:        c.ID,
		Name:      c.Name,
		Tags:      strings.Join(c.Tags, ","),
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Position:  c.Position,
		CreatedAt: formatTime(c.CreatedAt),
	}
	if c.LastContactedAt != nil {
		r.LastContactedAt = formatTime(*c.LastContactedAt)
	}
	return r
}

func (r ContactRecord) ToContact() (domain.Contact, error) {
	c := domain.Contact{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Company:  r.Company,
		Position: r.Position,
		Tags:     splitWireTags(r.Tags),
	}
	var err error
	if c.CreatedAt, err = parseWireTime(r.CreatedAt); err != nil {
		return domain.Contact{}, fmt.Errorf("createdAt_c: %w", err)
	}
	if r.LastContactedAt != "" {
		t, err := parseWireTime(r.LastContactedAt)
		if err != nil {
			return domain.Contact{}, fmt.Errorf("lastContactedAt_c: %w", err)
		}
		c.LastContactedAt = &t
	}
	return c, nil
}

func ContactPatchToRecord(p domain.ContactPatch) ContactPatchRecord {
	r := ContactPatchRecord{
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
		Company:  p.Company,
		Position: p.Position,
	}
	if p.Tags != nil {
		joined := strings.Join(*p.Tags, ",")
		r.Tags = &joined
	}
	if p.LastContactedAt != nil {
		s := formatTime(*p.LastContactedAt)
		r.LastContactedAt = &s
	}
	return r
}

func (r ContactPatchRecord) ToPatch() (domain.ContactPatch, error) {
	p := domain.ContactPatch{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Company:  r.Company,
		Position: r.Position,
	}
	if r.Tags != nil {
		tags := splitWireTags(*r.Tags)
		p.Tags = &tags
	}
	if r.LastContactedAt != nil {
		t, err := parseWireTime(*r.LastContactedAt)
		if err != nil {
			return domain.ContactPatch{}, fmt.Errorf("lastContactedAt_c: %w", err)
		}
		p.LastContactedAt = &t
	}
	return p, nil
}

// ActivityRecord is an activity in wire shape.
type ActivityRecord struct {
	ID          int64     `json:"Id,omitempty"`
	Name        string    `json:"Name"`
	Type        string    `json:"type_c"`
	Description string    `json:"description_c"`
	Date        string    `json:"date_c"`
	Duration    *int      `json:"duration_c,omitempty"`
	ContactID   LookupID  `json:"contactId_c"`
	DealID      *LookupID `json:"dealId_c,omitempty"`
	CreatedOn   string    `json:"CreatedOn,omitempty"`
}

type ActivityPatchRecord struct {
	Type        *string   `json:"type_c,omitempty"`
	Description *string   `json:"description_c,omitempty"`
	Date        *string   `json:"date_c,omitempty"`
	Duration    *int      `json:"duration_c,omitempty"`
	ContactID   *LookupID `json:"contactId_c,omitempty"`
	DealID      *LookupID `json:"dealId_c,omitempty"`
}

func ActivityToRecord(a domain.Activity) ActivityRecord {
	r := ActivityRecord{
		ID:          a.ID,
		Name:        a.Description,
		Type:        string(a.Type),
		Description: a.Description,
		Date:        formatTime(a.Date),
		Duration:    a.DurationMinutes,
		ContactID:   LookupID(a.ContactID),
		CreatedOn:   formatTime(a.CreatedAt),
	}
	if a.DealID != nil {
		id := LookupID(*a.DealID)
		r.DealID = &id
	}
	return r
}

func (r ActivityRecord) ToActivity() (domain.Activity, error) {
	a := domain.Activity{
		ID:              r.ID,
		Type:            domain.ActivityType(r.Type),
		Description:     domain.FirstNonEmpty(r.Description, r.Name),
		DurationMinutes: r.Duration,
		ContactID:       int64(r.ContactID),
	}
	if r.DealID != nil && *r.DealID > 0 {
		id := int64(*r.DealID)
		a.DealID = &id
	}
	var err error
	if a.Date, err = parseWireTime(r.Date); err != nil {
		return domain.Activity{}, fmt.Errorf("date_c: %w", err)
	}
	if a.CreatedAt, err = parseWireTime(r.CreatedOn); err != nil {
		return domain.Activity{}, fmt.Errorf("CreatedOn: %w", err)
	}
	return a, nil
}

func ActivityPatchToRecord(p domain.ActivityPatch) ActivityPatchRecord {
	r := ActivityPatchRecord{
		Description: p.Description,
		Duration:    p.DurationMinutes,
	}
	if p.Type != nil {
		t := string(*p.Type)
		r.Type = &t
	}
	if p.Date != nil {
		s := formatTime(*p.Date)
		r.Date = &s
	}
	if p.ContactID != nil {
		id := LookupID(*p.ContactID)
		r.ContactID = &id
	}
	if p.DealID != nil {
		id := LookupID(*p.DealID)
		r.DealID = &id
	}
	return r
}

func (r ActivityPatchRecord) ToPatch() (domain.ActivityPatch, error) {
	p := domain.ActivityPatch{
		Description:     r.Description,
		DurationMinutes: r.Duration,
	}
	if r.Type != nil {
		t := domain.ActivityType(*r.Type)
		p.Type = &t
	}
	if r.Date != nil {
		t, err := parseWireTime(*r.Date)
		if err != nil {
			return domain.ActivityPatch{}, fmt.Errorf("date_c: %w", err)
		}
		p.Date = &t
	}
	if r.ContactID != nil {
		id := int64(*r.ContactID)
		p.ContactID = &id
	}
	if r.DealID != nil {
		id := int64(*r.DealID)
		p.DealID = &id
	}
	return p, nil
}

// Query parameters shared by the client and the API server.

func ContactQueryValues(q ContactQuery) url.Values {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	setLimit(v, q.Limit)
	return v
}

func ParseContactQuery(v url.Values) (ContactQuery, error) {
	limit, err := parseLimit(v)
	return ContactQuery{Query: v.Get("q"), Limit: limit}, err
}

func DealQueryValues(q DealQuery) url.Values {
	v := url.Values{}
	if q.StageID != "" {
		v.Set("stage_c", q.StageID)
	}
	if q.ContactID > 0 {
		v.Set("contactId_c", strconv.FormatInt(q.ContactID, 10))
	}
	setLimit(v, q.Limit)
	return v
}

func ParseDealQuery(v url.Values) (DealQuery, error) {
	q := DealQuery{StageID: v.Get("stage_c")}
	var err error
	if q.ContactID, err = parseID(v, "contactId_c"); err != nil {
		return q, err
	}
	q.Limit, err = parseLimit(v)
	return q, err
}

func ActivityQueryValues(q ActivityQuery) url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type_c", string(q.Type))
	}
	if q.ContactID > 0 {
		v.Set("contactId_c", strconv.FormatInt(q.ContactID, 10))
	}
	if q.DealID > 0 {
		v.Set("dealId_c", strconv.FormatInt(q.DealID, 10))
	}
	setLimit(v, q.Limit)
	return v
}

func ParseActivityQuery(v url.Values) (ActivityQuery, error) {
	q := ActivityQuery{Type: domain.ActivityType(v.Get("type_c"))}
	var err error
	if q.ContactID, err = parseID(v, "contactId_c"); err != nil {
		return q, err
	}
	if q.DealID, err = parseID(v, "dealId_c"); err != nil {
		return q, err
	}
	q.Limit, err = parseLimit(v)
	return q, err
}

func setLimit(v url.Values, limit int) {
	if limit != 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}

func parseLimit(v url.Values) (int, error) {
	s := v.Get("limit")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("limit %q is not a number", s)
	}
	return n, nil
}

func parseID(v url.Values, key string) (int64, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, s)
	}
	return n, nil
}

func splitWireTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseWireTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(wireDateLayout, s)
}

// parseWireDate accepts a plain date or a full timestamp, keeping the date.
func parseWireDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(wireDateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}
