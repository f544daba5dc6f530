package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/alexanderramin/dealflow/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db     *sql.DB
	store  *recordstore.Store
	stages *domain.StageRegistry
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	stages := domain.DefaultStageRegistry()
	return testEnv{
		db:     database,
		store:  recordstore.NewLocal(database, testutil.NewTestUoW(database), stages),
		stages: stages,
	}
}

func (e testEnv) contact(t *testing.T, name string, opts ...testutil.ContactOption) domain.Contact {
	t.Helper()
	c, err := e.store.Contacts.Create(context.Background(), *testutil.NewTestContact(name, opts...))
	require.NoError(t, err)
	return c
}

func (e testEnv) deal(t *testing.T, contactID int64, title string, opts ...testutil.DealOption) domain.Deal {
	t.Helper()
	d, err := e.store.Deals.Create(context.Background(), *testutil.NewTestDeal(contactID, title, opts...))
	require.NoError(t, err)
	return d
}

func (e testEnv) activity(t *testing.T, contactID int64, desc string, opts ...testutil.ActivityOption) domain.Activity {
	t.Helper()
	a, err := e.store.Activities.Create(context.Background(), *testutil.NewTestActivity(contactID, desc, opts...))
	require.NoError(t, err)
	return a
}
