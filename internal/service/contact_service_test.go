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

func contactNames(cs []domain.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestContactService_ListSorts(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env.contact(t, "charlie", testutil.WithCompany("Beta"), testutil.WithContactCreatedAt(base))
	env.contact(t, "Alice", testutil.WithCompany("gamma"), testutil.WithContactCreatedAt(base.Add(time.Hour)))
	env.contact(t, "bob", testutil.WithCompany("Alpha"), testutil.WithContactCreatedAt(base.Add(2*time.Hour)))
	svc := NewContactService(env.store)
	ctx := context.Background()

	got, err := svc.List(ctx, "", SortContactsByName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "bob", "charlie"}, contactNames(got))

	got, err = svc.List(ctx, "", SortContactsByCompany)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "charlie", "Alice"}, contactNames(got))

	got, err = svc.List(ctx, "", SortContactsByRecent)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "Alice", "charlie"}, contactNames(got))
}

func TestContactService_ListSearches(t *testing.T) {
	env := newTestEnv(t)
	env.contact(t, "Ada Lovelace", testutil.WithCompany("Analytical Engines"))
	env.contact(t, "Grace Hopper", testutil.WithPhone("555-0199"))
	svc := NewContactService(env.store)

	got, err := svc.List(context.Background(), "  analytical ", SortContactsByName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace"}, contactNames(got))

	got, err = svc.List(context.Background(), "0199", SortContactsByName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Grace Hopper"}, contactNames(got))
}

func TestContactService_DeleteRules(t *testing.T) {
	env := newTestEnv(t)
	svc := NewContactService(env.store)
	ctx := context.Background()
	owner := env.contact(t, "Owner")
	env.deal(t, owner.ID, "Big deal")
	free := env.contact(t, "Free")

	err := svc.Delete(ctx, owner.ID)
	assert.ErrorIs(t, err, domain.ErrContactInUse)

	require.NoError(t, svc.Delete(ctx, free.ID))
	assert.ErrorIs(t, svc.Delete(ctx, free.ID), domain.ErrNotFound)
}

func TestContactService_Deals(t *testing.T) {
	env := newTestEnv(t)
	svc := NewContactService(env.store)
	a := env.contact(t, "A")
	b := env.contact(t, "B")
	env.deal(t, a.ID, "One")
	env.deal(t, a.ID, "Two")
	env.deal(t, b.ID, "Other")

	deals, err := svc.Deals(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, deals, 2)

	_, err = svc.Deals(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContactService_CreateValidates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewContactService(env.store)

	_, err := svc.Create(context.Background(), domain.Contact{Name: "No Email"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("email"))
}
