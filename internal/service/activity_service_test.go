package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptions(list []domain.Activity) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Description
	}
	return out
}

func TestActivityService_FilterAndSort(t *testing.T) {
	env := newTestEnv(t)
	c := env.contact(t, "Ada")
	other := env.contact(t, "Grace")
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	env.activity(t, c.ID, "second", testutil.WithActivityType(domain.ActivityMeeting), testutil.WithActivityDate(day.AddDate(0, 0, 1)))
	env.activity(t, c.ID, "first", testutil.WithActivityType(domain.ActivityEmail), testutil.WithActivityDate(day))
	env.activity(t, c.ID, "third", testutil.WithActivityDate(day.AddDate(0, 0, 2)))
	env.activity(t, other.ID, "elsewhere", testutil.WithActivityDate(day))
	svc := NewActivityService(env.store)
	ctx := context.Background()

	got, err := svc.List(ctx, ActivityListFilter{ContactID: c.ID, Sort: SortActivitiesOldest})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, descriptions(got))

	got, err = svc.List(ctx, ActivityListFilter{ContactID: c.ID, Sort: SortActivitiesRecent})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, descriptions(got))

	got, err = svc.List(ctx, ActivityListFilter{ContactID: c.ID, Sort: SortActivitiesByType})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second"}, descriptions(got))

	got, err = svc.List(ctx, ActivityListFilter{Type: domain.ActivityMeeting})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, descriptions(got))

	_, err = svc.List(ctx, ActivityListFilter{Type: "fax"})
	assert.Error(t, err)
}

func TestActivityService_LogStampsContact(t *testing.T) {
	env := newTestEnv(t)
	c := env.contact(t, "Ada")
	svc := NewActivityService(env.store)
	when := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

	logged, err := svc.Log(context.Background(), domain.Activity{
		Type: domain.ActivityCall, Description: "Intro", Date: when, ContactID: c.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, logged.ID)

	got, err := env.store.Contacts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, when.Equal(*got.LastContactedAt))
}

func TestActivityService_Delete(t *testing.T) {
	env := newTestEnv(t)
	c := env.contact(t, "Ada")
	a := env.activity(t, c.ID, "call")
	svc := NewActivityService(env.store)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), a.ID), domain.ErrNotFound)
}
