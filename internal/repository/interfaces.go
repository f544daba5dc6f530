package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
)

// DefaultListLimit caps list queries when the caller gives no limit.
const DefaultListLimit = 50

// ContactFilter narrows a contact listing. Query matches name, email,
// company or phone as a case-insensitive substring.
type ContactFilter struct {
	Query string
	Limit int
}

// DealFilter narrows a deal listing. Zero values match everything.
type DealFilter struct {
	StageID   string
	ContactID int64
	Limit     int
}

// ActivityFilter narrows an activity listing. Zero values match everything.
type ActivityFilter struct {
	Type      domain.ActivityType
	ContactID int64
	DealID    int64
	Limit     int
}

// All list methods return records newest first (created_at DESC, id DESC).
// A negative Limit disables the cap.

type ContactRepo interface {
	Create(ctx context.Context, c *domain.Contact) error
	GetByID(ctx context.Context, id int64) (*domain.Contact, error)
	List(ctx context.Context, f ContactFilter) ([]*domain.Contact, error)
	Update(ctx context.Context, c *domain.Contact) error
	TouchLastContacted(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type DealRepo interface {
	Create(ctx context.Context, d *domain.Deal) error
	GetByID(ctx context.Context, id int64) (*domain.Deal, error)
	List(ctx context.Context, f DealFilter) ([]*domain.Deal, error)
	Update(ctx context.Context, d *domain.Deal) error
	Delete(ctx context.Context, id int64) error
}

type ActivityRepo interface {
	Create(ctx context.Context, a *domain.Activity) error
	GetByID(ctx context.Context, id int64) (*domain.Activity, error)
	List(ctx context.Context, f ActivityFilter) ([]*domain.Activity, error)
	Update(ctx context.Context, a *domain.Activity) error
	Delete(ctx context.Context, id int64) error
}
