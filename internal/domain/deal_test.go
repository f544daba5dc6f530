package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDeal() Deal {
	return Deal{
		ID:          7,
		Title:       "Acme renewal",
		Value:       12500,
		StageID:     "qualified",
		Probability: 25,
		ContactID:   3,
	}
}

func TestDealValidate_Valid(t *testing.T) {
	d := validDeal()
	d.Title = "  Acme renewal  "
	d.Tags = []string{"q3", " q3", "", "enterprise"}

	got, err := d.Validate(DefaultStageRegistry())
	require.NoError(t, err)
	assert.Equal(t, "Acme renewal", got.Title)
	assert.Equal(t, []string{"q3", "enterprise"}, got.Tags)
}

func TestDealValidate_EmptyTitle(t *testing.T) {
	d := validDeal()
	d.Title = "   "

	_, err := d.Validate(DefaultStageRegistry())
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"title"}, ve.FieldNames())
}

func TestDealValidate_ReportsEveryField(t *testing.T) {
	d := Deal{Value: math.NaN(), StageID: "won", Probability: 101}

	_, err := d.Validate(DefaultStageRegistry())
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"contact_id", "probability", "stage", "title", "value"}, ve.FieldNames())
	assert.Contains(t, err.Error(), "invalid deal")
}

func TestDealValidate_NonPositiveValue(t *testing.T) {
	for _, v := range []float64{0, -1, math.Inf(1)} {
		d := validDeal()
		d.Value = v
		_, err := d.Validate(DefaultStageRegistry())
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "value %v", v)
		assert.True(t, ve.Has("value"))
	}
}

func TestApplyStageTransition_OverwritesProbability(t *testing.T) {
	reg := DefaultStageRegistry()
	d := validDeal()
	d.Probability = 40 // manual override

	moved, err := d.ApplyStageTransition(reg, "proposal")
	require.NoError(t, err)
	assert.Equal(t, "proposal", moved.StageID)
	assert.Equal(t, 50, moved.Probability)
	// receiver untouched
	assert.Equal(t, "qualified", d.StageID)
	assert.Equal(t, 40, d.Probability)
}

func TestApplyStageTransition_EveryStage(t *testing.T) {
	reg := DefaultStageRegistry()
	for _, s := range reg.All() {
		moved, err := validDeal().ApplyStageTransition(reg, s.ID)
		require.NoError(t, err)
		if s.ID == "qualified" {
			assert.Equal(t, 25, moved.Probability)
			continue
		}
		assert.Equal(t, s.DefaultProbability, moved.Probability, s.ID)
	}
}

func TestApplyStageTransition_SameStageIsEquivalent(t *testing.T) {
	d := validDeal()
	d.Probability = 33
	got, err := d.ApplyStageTransition(DefaultStageRegistry(), "qualified")
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestApplyStageTransition_UnknownStage(t *testing.T) {
	_, err := validDeal().ApplyStageTransition(DefaultStageRegistry(), "won")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestDealInput_ToDealDefaults(t *testing.T) {
	reg := DefaultStageRegistry()
	d := DealInput{Title: "New", Value: 100, ContactID: 1}.ToDeal(reg)
	assert.Equal(t, "lead", d.StageID)
	assert.Equal(t, 10, d.Probability)

	p := 60
	d = DealInput{Title: "New", Value: 100, ContactID: 1, StageID: "proposal", Probability: &p}.ToDeal(reg)
	assert.Equal(t, "proposal", d.StageID)
	assert.Equal(t, 60, d.Probability)
}

func TestDealWithPatch(t *testing.T) {
	closeAt := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	d := validDeal()
	d.ExpectedCloseDate = &closeAt
	d.Tags = []string{"a"}

	title := "Renamed"
	tags := []string{"b", "c"}
	got := d.WithPatch(DealPatch{Title: &title, Tags: &tags})
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"b", "c"}, got.Tags)
	assert.Equal(t, d.Value, got.Value)
	require.NotNil(t, got.ExpectedCloseDate)

	got = d.WithPatch(DealPatch{ClearCloseDate: true})
	assert.Nil(t, got.ExpectedCloseDate)
	assert.NotNil(t, d.ExpectedCloseDate)
}

func TestDealClone_IsDeep(t *testing.T) {
	closeAt := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	d := validDeal()
	d.ExpectedCloseDate = &closeAt
	d.Tags = []string{"a"}

	c := d.Clone()
	c.Tags[0] = "z"
	*c.ExpectedCloseDate = closeAt.AddDate(1, 0, 0)
	assert.Equal(t, "a", d.Tags[0])
	assert.Equal(t, closeAt, *d.ExpectedCloseDate)
}

func TestFullPatch_RoundTrips(t *testing.T) {
	d := validDeal()
	d.Notes = "call back"
	got := Deal{ID: d.ID}.WithPatch(FullPatch(d))
	assert.Equal(t, d, got)
	assert.False(t, FullPatch(d).IsEmpty())
	assert.True(t, DealPatch{}.IsEmpty())
}

func TestWeightedValue(t *testing.T) {
	d := validDeal()
	assert.InDelta(t, 3125.0, d.WeightedValue(), 0.001)
}

func TestDealOverlay_PartialStoredRecordKeepsLocalFields(t *testing.T) {
	local := validDeal()
	stamp := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	got := local.Overlay(Deal{ID: 99, StageID: "negotiation", Probability: 75, UpdatedAt: stamp})

	assert.Equal(t, int64(7), got.ID, "local id wins")
	assert.Equal(t, "Acme renewal", got.Title)
	assert.Equal(t, 12500.0, got.Value)
	assert.Equal(t, int64(3), got.ContactID)
	assert.Equal(t, "negotiation", got.StageID)
	assert.Equal(t, 75, got.Probability)
	assert.Equal(t, stamp, got.UpdatedAt)
}

func TestDealOverlay_FullRecordReplacesAndTakesID(t *testing.T) {
	stored := validDeal()
	stored.ID = 42
	stored.Title = "Acme renewal (signed)"
	stored.Tags = []string{"won"}

	local := validDeal()
	local.ID = 0
	got := local.Overlay(stored)

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "Acme renewal (signed)", got.Title)
	assert.Equal(t, []string{"won"}, got.Tags)
	stored.Tags[0] = "mutated"
	assert.Equal(t, []string{"won"}, got.Tags, "tags are copied")
}
