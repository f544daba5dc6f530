package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
)

type contactService struct {
	store    *recordstore.Store
	observer UseCaseObserver
}

func NewContactService(store *recordstore.Store, observers ...UseCaseObserver) ContactService {
	return &contactService{store: store, observer: useCaseObserverOrNoop(observers)}
}

// List returns every contact matching query, ordered by sort. An unknown sort
// keeps the store's newest-first order.
func (s *contactService) List(ctx context.Context, query string, by ContactSort) ([]domain.Contact, error) {
	contacts, err := s.store.Contacts.List(ctx, recordstore.ContactQuery{Query: strings.TrimSpace(query), Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	sortContacts(contacts, by)
	return contacts, nil
}

func sortContacts(contacts []domain.Contact, by ContactSort) {
	switch by {
	case SortContactsByName:
		sort.SliceStable(contacts, func(i, j int) bool {
			return strings.ToLower(contacts[i].Name) < strings.ToLower(contacts[j].Name)
		})
	case SortContactsByCompany:
		sort.SliceStable(contacts, func(i, j int) bool {
			return strings.ToLower(contacts[i].Company) < strings.ToLower(contacts[j].Company)
		})
	case SortContactsByRecent:
		sort.SliceStable(contacts, func(i, j int) bool {
			return contacts[i].CreatedAt.After(contacts[j].CreatedAt)
		})
	}
}

func (s *contactService) Get(ctx context.Context, id int64) (domain.Contact, error) {
	return s.store.Contacts.Get(ctx, id)
}

func (s *contactService) Create(ctx context.Context, c domain.Contact) (created domain.Contact, err error) {
	fields := map[string]any{"email": c.Email}
	defer observe(ctx, s.observer, "create-contact", fields, &err)()

	created, err = s.store.Contacts.Create(ctx, c)
	if err != nil {
		return domain.Contact{}, err
	}
	fields["contact_id"] = created.ID
	return created, nil
}

func (s *contactService) Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.Contact, error) {
	return s.store.Contacts.Update(ctx, id, patch)
}

// Delete removes the contact. Contacts that still own deals are refused with
// domain.ErrContactInUse.
func (s *contactService) Delete(ctx context.Context, id int64) (err error) {
	defer observe(ctx, s.observer, "delete-contact", map[string]any{"contact_id": id}, &err)()

	ok, err := s.store.Contacts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("contact %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *contactService) Deals(ctx context.Context, id int64) ([]domain.Deal, error) {
	if _, err := s.store.Contacts.Get(ctx, id); err != nil {
		return nil, err
	}
	deals, err := s.store.Deals.List(ctx, recordstore.DealQuery{ContactID: id, Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("listing deals for contact %d: %w", id, err)
	}
	return deals, nil
}
