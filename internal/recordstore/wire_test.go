package recordstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func marshalIndent(t *testing.T, v any) []byte {
	t.Helper()
	out, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	return out
}

func sampleDeal() domain.Deal {
	closeAt := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	return domain.Deal{
		ID:                42,
		Title:             "Acme renewal",
		Value:             12500,
		StageID:           "proposal",
		Probability:       50,
		ContactID:         7,
		ExpectedCloseDate: &closeAt,
		Notes:             "legal review",
		Tags:              []string{"q4", "enterprise"},
		CreatedAt:         time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestWire_DealRecordGolden(t *testing.T) {
	newGoldie(t).Assert(t, "deal_record", marshalIndent(t, DealToRecord(sampleDeal())))
}

func TestWire_StagePatchGolden(t *testing.T) {
	moved, err := sampleDeal().ApplyStageTransition(domain.DefaultStageRegistry(), "negotiation")
	require.NoError(t, err)
	rec := DealPatchToRecord(domain.StagePatch(moved))
	newGoldie(t).Assert(t, "deal_stage_patch", marshalIndent(t, rec))
}

func TestWire_ContactRecordGolden(t *testing.T) {
	last := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	c := domain.Contact{
		ID:              7,
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Phone:           "555-0100",
		Company:         "Analytical Engines",
		Position:        "CTO",
		Tags:            []string{"vip"},
		CreatedAt:       time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
		LastContactedAt: &last,
	}
	newGoldie(t).Assert(t, "contact_record", marshalIndent(t, ContactToRecord(c)))
}

func TestWire_ActivityRecordGolden(t *testing.T) {
	dur := 45
	dealID := int64(42)
	a := domain.Activity{
		ID:              3,
		Type:            domain.ActivityCall,
		Description:     "Pricing call",
		Date:            time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		DurationMinutes: &dur,
		ContactID:       7,
		DealID:          &dealID,
		CreatedAt:       time.Date(2026, 3, 1, 9, 35, 0, 0, time.UTC),
	}
	newGoldie(t).Assert(t, "activity_record", marshalIndent(t, ActivityToRecord(a)))
}

func TestWire_DealRoundTrip(t *testing.T) {
	d := sampleDeal()
	got, err := DealToRecord(d).ToDeal()
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestWire_LookupIDShapes(t *testing.T) {
	cases := map[string]LookupID{
		`{"contactId_c": 7}`:                           7,
		`{"contactId_c": "7"}`:                         7,
		`{"contactId_c": {"Id": 7, "Name": "Ada"}}`:    7,
		`{"contactId_c": {"Id": "7", "Name": "Ada"}}`:  7,
		`{"contactId_c": null}`:                        0,
		`{"contactId_c": ""}`:                          0,
	}
	for body, want := range cases {
		var rec DealRecord
		require.NoError(t, json.Unmarshal([]byte(body), &rec), body)
		assert.Equal(t, want, rec.ContactID, body)
	}

	var rec DealRecord
	assert.Error(t, json.Unmarshal([]byte(`{"contactId_c": "seven"}`), &rec))
}

func TestWire_DealNormalization(t *testing.T) {
	body := `{
		"Id": 9,
		"Name": "Fallback title",
		"Tags": " a, ,b ",
		"value_c": 300,
		"stage_c": "lead",
		"probability_c": 10,
		"contactId_c": {"Id": 2, "Name": "Grace"},
		"expectedCloseDate_c": "2026-06-30T15:04:05.000Z",
		"createdAt_c": "2026-01-02T03:04:05.123Z"
	}`
	var rec DealRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	d, err := rec.ToDeal()
	require.NoError(t, err)

	assert.Equal(t, "Fallback title", d.Title)
	assert.Equal(t, []string{"a", "b"}, d.Tags)
	assert.Equal(t, int64(2), d.ContactID)
	require.NotNil(t, d.ExpectedCloseDate)
	assert.Equal(t, "2026-06-30", d.ExpectedCloseDate.Format("2006-01-02"))
	assert.Equal(t, 2026, d.CreatedAt.Year())
}

func TestWire_DealPatchRoundTrip(t *testing.T) {
	title := "New"
	tags := []string{"x"}
	contact := int64(4)
	patch := domain.DealPatch{Title: &title, Tags: &tags, ContactID: &contact, ClearCloseDate: true}

	body, err := json.Marshal(DealPatchToRecord(patch))
	require.NoError(t, err)

	var rec DealPatchRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	got, err := rec.ToPatch()
	require.NoError(t, err)
	assert.Equal(t, patch, got)
}

func TestWire_QueryValuesRoundTrip(t *testing.T) {
	dq := DealQuery{StageID: "proposal", ContactID: 3, Limit: -1}
	gotDeal, err := ParseDealQuery(DealQueryValues(dq))
	require.NoError(t, err)
	assert.Equal(t, dq, gotDeal)

	aq := ActivityQuery{Type: domain.ActivityEmail, DealID: 5, Limit: 10}
	gotAct, err := ParseActivityQuery(ActivityQueryValues(aq))
	require.NoError(t, err)
	assert.Equal(t, aq, gotAct)

	cq := ContactQuery{Query: "ada"}
	gotContact, err := ParseContactQuery(ContactQueryValues(cq))
	require.NoError(t, err)
	assert.Equal(t, cq, gotContact)

	bad := DealQueryValues(DealQuery{})
	bad.Set("contactId_c", "abc")
	_, err = ParseDealQuery(bad)
	assert.Error(t, err)
}
