package service

import (
	"context"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/importer"
)

// ContactSort orders a contact listing.
type ContactSort string

const (
	SortContactsByName    ContactSort = "name"
	SortContactsByCompany ContactSort = "company"
	SortContactsByRecent  ContactSort = "recent"
)

type ActivitySort string

const (
	SortActivitiesRecent ActivitySort = "recent"
	SortActivitiesOldest ActivitySort = "oldest"
	SortActivitiesByType ActivitySort = "type"
)

// ActivityListFilter narrows and orders an activity listing. Zero values
// match everything; Limit follows the store's convention.
type ActivityListFilter struct {
	Type      domain.ActivityType
	ContactID int64
	DealID    int64
	Sort      ActivitySort
	Limit     int
}

type ContactService interface {
	List(ctx context.Context, query string, sort ContactSort) ([]domain.Contact, error)
	Get(ctx context.Context, id int64) (domain.Contact, error)
	Create(ctx context.Context, c domain.Contact) (domain.Contact, error)
	Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.Contact, error)
	Delete(ctx context.Context, id int64) error
	Deals(ctx context.Context, id int64) ([]domain.Deal, error)
}

type ActivityService interface {
	List(ctx context.Context, f ActivityListFilter) ([]domain.Activity, error)
	Log(ctx context.Context, a domain.Activity) (domain.Activity, error)
	Update(ctx context.Context, id int64, patch domain.ActivityPatch) (domain.Activity, error)
	Delete(ctx context.Context, id int64) error
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
}

// ImportResult holds the outcome of a workspace import.
type ImportResult struct {
	Contacts   int
	Deals      int
	Activities int
}

type ImportService interface {
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	ImportWorkspace(ctx context.Context, ws *importer.Workspace) (*ImportResult, error)
}
