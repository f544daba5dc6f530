// Package recordstore is the record-store client: CRUD per collection over
// either the local SQLite database or a remote record API.
package recordstore

import (
	"context"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/repository"
)

const (
	CollectionContacts   = "contacts"
	CollectionDeals      = "deals"
	CollectionActivities = "activities"
)

type (
	ContactQuery  = repository.ContactFilter
	DealQuery     = repository.DealFilter
	ActivityQuery = repository.ActivityFilter
)

// AllDeals lists every deal without a cap.
var AllDeals = DealQuery{Limit: -1}

// Contacts is the contact collection. Get returns an error wrapping
// domain.ErrNotFound for missing records; Delete reports false instead.
type Contacts interface {
	List(ctx context.Context, q ContactQuery) ([]domain.Contact, error)
	Get(ctx context.Context, id int64) (domain.Contact, error)
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.Contact, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Deals is the deal collection. Update returns the record as persisted,
// which callers treat as authoritative.
type Deals interface {
	List(ctx context.Context, q DealQuery) ([]domain.Deal, error)
	Get(ctx context.Context, id int64) (domain.Deal, error)
	Create(ctx context.Context, d domain.Deal) (domain.Deal, error)
	Update(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Activities interface {
	List(ctx context.Context, q ActivityQuery) ([]domain.Activity, error)
	Get(ctx context.Context, id int64) (domain.Activity, error)
	Create(ctx context.Context, a domain.Activity) (domain.Activity, error)
	Update(ctx context.Context, id int64, patch domain.ActivityPatch) (domain.Activity, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Store groups the three collections behind one handle.
type Store struct {
	Contacts   Contacts
	Deals      Deals
	Activities Activities
}
