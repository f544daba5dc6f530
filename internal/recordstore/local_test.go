package recordstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *Store {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewLocal(database, testutil.NewTestUoW(database), domain.DefaultStageRegistry())
}

func createContact(t *testing.T, s *Store, name string) domain.Contact {
	t.Helper()
	c, err := s.Contacts.Create(context.Background(), *testutil.NewTestContact(name))
	require.NoError(t, err)
	return c
}

func TestLocalDeals_CreateAssignsIDAndValidates(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")

	d, err := s.Deals.Create(ctx, domain.Deal{Title: " Acme ", Value: 500, StageID: "lead", Probability: 10, ContactID: c.ID})
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.Equal(t, "Acme", d.Title)
	assert.False(t, d.CreatedAt.IsZero())

	_, err = s.Deals.Create(ctx, domain.Deal{Value: 500, StageID: "lead", ContactID: c.ID})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("title"))
}

func TestLocalDeals_CreateUnknownContact(t *testing.T) {
	s := newLocalStore(t)

	_, err := s.Deals.Create(context.Background(), domain.Deal{Title: "X", Value: 1, StageID: "lead", ContactID: 99})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"contact_id"}, ve.FieldNames())
}

func TestLocalDeals_UpdateStagePatch(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")

	created, err := s.Deals.Create(ctx, domain.Deal{Title: "Acme", Value: 500, StageID: "lead", Probability: 10, ContactID: c.ID, Notes: "keep me"})
	require.NoError(t, err)

	moved, err := created.ApplyStageTransition(domain.DefaultStageRegistry(), "proposal")
	require.NoError(t, err)
	updated, err := s.Deals.Update(ctx, created.ID, domain.StagePatch(moved))
	require.NoError(t, err)
	assert.Equal(t, "proposal", updated.StageID)
	assert.Equal(t, 50, updated.Probability)
	assert.Equal(t, "keep me", updated.Notes)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	fetched, err := s.Deals.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "proposal", fetched.StageID)
}

func TestLocalDeals_UpdateRejectsUnknownStage(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")
	created, err := s.Deals.Create(ctx, domain.Deal{Title: "Acme", Value: 500, StageID: "lead", ContactID: c.ID})
	require.NoError(t, err)

	stage := "won"
	_, err = s.Deals.Update(ctx, created.ID, domain.DealPatch{StageID: &stage})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("stage"))

	fetched, err := s.Deals.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "lead", fetched.StageID)
}

func TestLocalDeals_UpdateMissing(t *testing.T) {
	s := newLocalStore(t)
	title := "x"
	_, err := s.Deals.Update(context.Background(), 404, domain.DealPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalDeals_DeleteReportsExistence(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")
	d, err := s.Deals.Create(ctx, domain.Deal{Title: "Acme", Value: 500, StageID: "lead", ContactID: c.ID})
	require.NoError(t, err)

	ok, err := s.Deals.Delete(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Deals.Delete(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalDeals_ListAllNewestFirst(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")
	for i := 0; i < 60; i++ {
		_, err := s.Deals.Create(ctx, domain.Deal{Title: "D", Value: 1, StageID: "lead", ContactID: c.ID})
		require.NoError(t, err)
	}

	capped, err := s.Deals.List(ctx, DealQuery{})
	require.NoError(t, err)
	assert.Len(t, capped, 50)

	all, err := s.Deals.List(ctx, AllDeals)
	require.NoError(t, err)
	require.Len(t, all, 60)
	assert.Greater(t, all[0].ID, all[59].ID)
}

func TestLocalContacts_DeleteWithDeals(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")
	_, err := s.Deals.Create(ctx, domain.Deal{Title: "Acme", Value: 500, StageID: "lead", ContactID: c.ID})
	require.NoError(t, err)

	ok, err := s.Contacts.Delete(ctx, c.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrContactInUse)

	ok, err = s.Contacts.Delete(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalContacts_UpdateValidates(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")

	bad := "not-an-email"
	_, err := s.Contacts.Update(ctx, c.ID, domain.ContactPatch{Email: &bad})
	assert.True(t, domain.IsValidationError(err))

	company := "Analytical"
	updated, err := s.Contacts.Update(ctx, c.ID, domain.ContactPatch{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Analytical", updated.Company)
	assert.Equal(t, c.Email, updated.Email)
}

func TestLocalActivities_CreateStampsContact(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()
	c := createContact(t, s, "Ada")

	when := time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC)
	a, err := s.Activities.Create(ctx, domain.Activity{Type: domain.ActivityMeeting, Description: "Demo", Date: when, ContactID: c.ID})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	fetched, err := s.Contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastContactedAt)
	assert.True(t, when.Equal(*fetched.LastContactedAt))
}

func TestLocalActivities_RollbackLeavesContactUntouched(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	healthy := NewLocal(database, testutil.NewTestUoW(database), domain.DefaultStageRegistry())
	c := createContact(t, healthy, "Ada")

	boom := errors.New("disk full")
	failing := NewLocal(database, testutil.NewFailingUoW(database, "SET last_contacted_at", boom), domain.DefaultStageRegistry())
	_, err := failing.Activities.Create(ctx, domain.Activity{Description: "Call", Date: time.Now(), ContactID: c.ID})
	require.ErrorIs(t, err, boom)

	list, err := healthy.Activities.List(ctx, ActivityQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	fetched, err := healthy.Contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.LastContactedAt)
}
