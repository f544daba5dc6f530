package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/dealflow/internal/db"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/repository"
)

// NewLocal returns a Store over the SQLite database. Writes that touch more
// than one table run inside a single transaction of uow.
func NewLocal(conn *sql.DB, uow db.UnitOfWork, stages *domain.StageRegistry) *Store {
	return &Store{
		Contacts:   &localContacts{conn: conn, uow: uow},
		Deals:      &localDeals{conn: conn, uow: uow, stages: stages},
		Activities: &localActivities{conn: conn, uow: uow},
	}
}

// deref copies repository results into values so callers never share
// storage with the repository layer.
func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, p := range in {
		out = append(out, *p)
	}
	return out
}

// requireContact turns a dangling contact reference into a field error.
func requireContact(ctx context.Context, tx db.DBTX, entity string, id int64) error {
	if id <= 0 {
		return nil // already reported by Validate
	}
	_, err := repository.NewSQLiteContactRepo(tx).GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError(entity, domain.FieldError{
			Field:   "contact_id",
			Message: fmt.Sprintf("contact %d does not exist", id),
		})
	}
	return err
}

type localContacts struct {
	conn *sql.DB
	uow  db.UnitOfWork
}

func (s *localContacts) List(ctx context.Context, q ContactQuery) ([]domain.Contact, error) {
	list, err := repository.NewSQLiteContactRepo(s.conn).List(ctx, q)
	if err != nil {
		return nil, err
	}
	return deref(list), nil
}

func (s *localContacts) Get(ctx context.Context, id int64) (domain.Contact, error) {
	c, err := repository.NewSQLiteContactRepo(s.conn).GetByID(ctx, id)
	if err != nil {
		return domain.Contact{}, err
	}
	return *c, nil
}

func (s *localContacts) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	valid, err := c.Validate()
	if err != nil {
		return domain.Contact{}, err
	}
	valid.ID = 0
	if err := repository.NewSQLiteContactRepo(s.conn).Create(ctx, &valid); err != nil {
		return domain.Contact{}, err
	}
	return valid, nil
}

func (s *localContacts) Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.Contact, error) {
	var out domain.Contact
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteContactRepo(tx)
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		valid, err := existing.WithPatch(patch).Validate()
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, &valid); err != nil {
			return err
		}
		out = valid
		return nil
	})
	return out, err
}

func (s *localContacts) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		owned, err := repository.NewSQLiteDealRepo(tx).List(ctx, repository.DealFilter{ContactID: id, Limit: 1})
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			return fmt.Errorf("contact %d: %w", id, domain.ErrContactInUse)
		}
		err = repository.NewSQLiteContactRepo(tx).Delete(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

type localDeals struct {
	conn   *sql.DB
	uow    db.UnitOfWork
	stages *domain.StageRegistry
}

func (s *localDeals) List(ctx context.Context, q DealQuery) ([]domain.Deal, error) {
	list, err := repository.NewSQLiteDealRepo(s.conn).List(ctx, q)
	if err != nil {
		return nil, err
	}
	return deref(list), nil
}

func (s *localDeals) Get(ctx context.Context, id int64) (domain.Deal, error) {
	d, err := repository.NewSQLiteDealRepo(s.conn).GetByID(ctx, id)
	if err != nil {
		return domain.Deal{}, err
	}
	return *d, nil
}

func (s *localDeals) Create(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	valid, err := d.Validate(s.stages)
	if err != nil {
		return domain.Deal{}, err
	}
	valid.ID = 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := requireContact(ctx, tx, "deal", valid.ContactID); err != nil {
			return err
		}
		return repository.NewSQLiteDealRepo(tx).Create(ctx, &valid)
	})
	if err != nil {
		return domain.Deal{}, err
	}
	return valid, nil
}

func (s *localDeals) Update(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error) {
	var out domain.Deal
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteDealRepo(tx)
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		valid, err := existing.WithPatch(patch).Validate(s.stages)
		if err != nil {
			return err
		}
		if patch.ContactID != nil {
			if err := requireContact(ctx, tx, "deal", valid.ContactID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, &valid); err != nil {
			return err
		}
		out = valid
		return nil
	})
	return out, err
}

func (s *localDeals) Delete(ctx context.Context, id int64) (bool, error) {
	err := repository.NewSQLiteDealRepo(s.conn).Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type localActivities struct {
	conn *sql.DB
	uow  db.UnitOfWork
}

func (s *localActivities) List(ctx context.Context, q ActivityQuery) ([]domain.Activity, error) {
	list, err := repository.NewSQLiteActivityRepo(s.conn).List(ctx, q)
	if err != nil {
		return nil, err
	}
	return deref(list), nil
}

func (s *localActivities) Get(ctx context.Context, id int64) (domain.Activity, error) {
	a, err := repository.NewSQLiteActivityRepo(s.conn).GetByID(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	return *a, nil
}

// Create logs the activity and moves the contact's last-contacted stamp
// forward in the same transaction.
func (s *localActivities) Create(ctx context.Context, a domain.Activity) (domain.Activity, error) {
	valid, err := a.Validate()
	if err != nil {
		return domain.Activity{}, err
	}
	valid.ID = 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := requireContact(ctx, tx, "activity", valid.ContactID); err != nil {
			return err
		}
		if err := repository.NewSQLiteActivityRepo(tx).Create(ctx, &valid); err != nil {
			return err
		}
		return repository.NewSQLiteContactRepo(tx).TouchLastContacted(ctx, valid.ContactID, valid.Date)
	})
	if err != nil {
		return domain.Activity{}, err
	}
	return valid, nil
}

func (s *localActivities) Update(ctx context.Context, id int64, patch domain.ActivityPatch) (domain.Activity, error) {
	var out domain.Activity
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteActivityRepo(tx)
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		valid, err := existing.WithPatch(patch).Validate()
		if err != nil {
			return err
		}
		if patch.ContactID != nil {
			if err := requireContact(ctx, tx, "activity", valid.ContactID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, &valid); err != nil {
			return err
		}
		out = valid
		return nil
	})
	return out, err
}

func (s *localActivities) Delete(ctx context.Context, id int64) (bool, error) {
	err := repository.NewSQLiteActivityRepo(s.conn).Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
