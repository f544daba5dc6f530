package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
)

var errStoreDown = errors.New("record store unavailable")

// fakeStore is an in-memory deal and contact collection. Setting gate makes
// Update and Delete block until the channel is closed or receives; listGate
// does the same for List, after the rows have been read.
type fakeStore struct {
	mu       sync.Mutex
	deals    []domain.Deal
	contacts []domain.Contact
	nextID   int64

	listErr    error
	contactErr error
	updateErr  error
	createErr  error
	deleteErr  error
	gate       chan struct{}
	entered    chan struct{}

	listGate    chan struct{}
	listEntered chan struct{}

	// reply, when set, rewrites what Update and Create hand back; the
	// stored row is unaffected.
	reply func(domain.Deal) domain.Deal

	updates []domain.DealPatch
	creates int
	deletes int
}

func newFakeStore(deals ...domain.Deal) *fakeStore {
	f := &fakeStore{nextID: 100}
	for _, d := range deals {
		f.deals = append(f.deals, d.Clone())
	}
	f.contacts = []domain.Contact{{ID: 3, Name: "Ada Lovelace", Email: "ada@example.com"}}
	return f
}

func (f *fakeStore) List(ctx context.Context, q recordstore.DealQuery) ([]domain.Deal, error) {
	f.mu.Lock()
	if f.listErr != nil {
		f.mu.Unlock()
		return nil, f.listErr
	}
	out := make([]domain.Deal, 0, len(f.deals))
	for _, d := range f.deals {
		out = append(out, d.Clone())
	}
	gate, entered := f.listGate, f.listEntered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return out, nil
}

func (f *fakeStore) answer(d domain.Deal) domain.Deal {
	if f.reply != nil {
		return f.reply(d.Clone())
	}
	return d.Clone()
}

func (f *fakeStore) deal(id int64) (domain.Deal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deals {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return domain.Deal{}, false
}

func (f *fakeStore) Create(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return domain.Deal{}, f.createErr
	}
	f.nextID++
	d.ID = f.nextID
	f.deals = append(f.deals, d.Clone())
	return f.answer(d), nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return domain.Deal{}, f.updateErr
	}
	for i, d := range f.deals {
		if d.ID == id {
			f.deals[i] = d.WithPatch(patch)
			return f.answer(f.deals[i]), nil
		}
	}
	return domain.Deal{}, domain.ErrNotFound
}

func (f *fakeStore) Delete(ctx context.Context, id int64) (bool, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	for i, d := range f.deals {
		if d.ID == id {
			f.deals = append(f.deals[:i], f.deals[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) wait() {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

// contactStore adapts the fake's contacts to ContactLister.
type contactStore struct{ f *fakeStore }

func (c contactStore) List(ctx context.Context, q recordstore.ContactQuery) ([]domain.Contact, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if c.f.contactErr != nil {
		return nil, c.f.contactErr
	}
	return append([]domain.Contact(nil), c.f.contacts...), nil
}

type failure struct {
	kind ErrorKind
	err  error
}

type success struct {
	op   Op
	deal domain.Deal
}

// recorder captures every notification.
type recorder struct {
	mu        sync.Mutex
	updates   []Snapshot
	failures  []failure
	successes []success
}

func (r *recorder) BoardUpdated(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recorder) OperationFailed(kind ErrorKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure{kind, err})
}

func (r *recorder) OperationSucceeded(op Op, d domain.Deal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, success{op, d})
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates, r.failures, r.successes = nil, nil, nil
}

func (r *recorder) counts() (updates, failures, successes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates), len(r.failures), len(r.successes)
}
