package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dealflow/internal/db"
	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/importer"
	"github.com/alexanderramin/dealflow/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	stages   *domain.StageRegistry
	observer UseCaseObserver
}

// NewImportService imports into the local database. Everything in one file
// is written in a single transaction.
func NewImportService(uow db.UnitOfWork, stages *domain.StageRegistry, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, stages: stages, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	ws, err := importer.LoadWorkspace(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportWorkspace(ctx, ws)
}

func (s *importService) ImportWorkspace(ctx context.Context, ws *importer.Workspace) (result *ImportResult, err error) {
	fields := map[string]any{
		"contacts":   len(ws.Contacts),
		"deals":      len(ws.Deals),
		"activities": len(ws.Activities),
	}
	defer observe(ctx, s.observer, "import-workspace", fields, &err)()

	if errs := importer.ValidateWorkspace(ws, s.stages); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	converted, err := importer.Convert(ws, s.stages)
	if err != nil {
		return nil, fmt.Errorf("converting import file: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		contacts := repository.NewSQLiteContactRepo(tx)
		deals := repository.NewSQLiteDealRepo(tx)
		activities := repository.NewSQLiteActivityRepo(tx)

		contactIDs := make(map[string]int64, len(converted.Contacts))
		for _, c := range converted.Contacts {
			valid, err := c.Contact.Validate()
			if err != nil {
				return fmt.Errorf("contact %q: %w", c.Ref, err)
			}
			if err := contacts.Create(ctx, &valid); err != nil {
				return fmt.Errorf("creating contact %q: %w", c.Ref, err)
			}
			contactIDs[c.Ref] = valid.ID
		}

		dealIDs := make(map[string]int64, len(converted.Deals))
		for _, d := range converted.Deals {
			deal := d.Deal
			deal.ContactID = contactIDs[d.ContactRef]
			valid, err := deal.Validate(s.stages)
			if err != nil {
				return fmt.Errorf("deal %q: %w", deal.Title, err)
			}
			if err := deals.Create(ctx, &valid); err != nil {
				return fmt.Errorf("creating deal %q: %w", deal.Title, err)
			}
			dealIDs[d.Ref] = valid.ID
		}

		for _, a := range converted.Activities {
			act := a.Activity
			act.ContactID = contactIDs[a.ContactRef]
			if a.DealRef != "" {
				id := dealIDs[a.DealRef]
				act.DealID = &id
			}
			valid, err := act.Validate()
			if err != nil {
				return fmt.Errorf("activity %q: %w", act.Description, err)
			}
			if err := activities.Create(ctx, &valid); err != nil {
				return fmt.Errorf("creating activity %q: %w", act.Description, err)
			}
			if err := contacts.TouchLastContacted(ctx, valid.ContactID, valid.Date); err != nil {
				return fmt.Errorf("stamping contact %q: %w", a.ContactRef, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Contacts:   len(converted.Contacts),
		Deals:      len(converted.Deals),
		Activities: len(converted.Activities),
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
