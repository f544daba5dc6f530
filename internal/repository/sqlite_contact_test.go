package repository

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

func TestContactRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteContactRepo(db)
	ctx := context.Background()

	c := testutil.NewTestContact("Ada Lovelace", testutil.WithCompany("Analytical"))
	c.Tags = []string{"vip", "engine"}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotZero(t, c.ID)

	fetched, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", fetched.Name)
	assert.Equal(t, "Analytical", fetched.Company)
	assert.Equal(t, []string{"vip", "engine"}, fetched.Tags)
	assert.Nil(t, fetched.LastContactedAt)
	assert.True(t, c.CreatedAt.Equal(fetched.CreatedAt))
}

func TestContactRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteContactRepo(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), "contact 404")
}

func TestContactRepo_List_NewestFirstAndSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteContactRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testutil.NewTestContact("Ada", testutil.WithContactCreatedAt(base))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestContact("Grace", testutil.WithCompany("Navy"),
		testutil.WithContactCreatedAt(base.Add(time.Hour)))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestContact("Linus", testutil.WithPhone("555-0199"),
		testutil.WithContactCreatedAt(base.Add(2*time.Hour)))))

	all, err := repo.List(ctx, ContactFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Linus", all[0].Name)
	assert.Equal(t, "Ada", all[2].Name)

	hits, err := repo.List(ctx, ContactFilter{Query: "NAVY"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Grace", hits[0].Name)

	hits, err = repo.List(ctx, ContactFilter{Query: "0199"})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	limited, err := repo.List(ctx, ContactFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestContactRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteContactRepo(db)
	ctx := context.Background()

	c := testutil.NewTestContact("Ada")
	require.NoError(t, repo.Create(ctx, c))

	c.Position = "Countess"
	require.NoError(t, repo.Update(ctx, c))
	fetched, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Countess", fetched.Position)

	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), domain.ErrNotFound)
	c.ID = 999
	assert.ErrorIs(t, repo.Update(ctx, c), domain.ErrNotFound)
}

func TestContactRepo_TouchLastContacted_OnlyMovesForward(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteContactRepo(db)
	ctx := context.Background()

	c := testutil.NewTestContact("Ada")
	require.NoError(t, repo.Create(ctx, c))

	later := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	earlier := later.Add(-48 * time.Hour)

	require.NoError(t, repo.TouchLastContacted(ctx, c.ID, later))
	require.NoError(t, repo.TouchLastContacted(ctx, c.ID, earlier))

	fetched, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastContactedAt)
	assert.True(t, later.Equal(*fetched.LastContactedAt))
}
