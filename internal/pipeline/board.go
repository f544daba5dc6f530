// Package pipeline holds the deal board: the working set of deals grouped by
// stage, the drag protocol, and reconciliation of optimistic stage moves
// against the record store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DealStore is the slice of the deal collection the board uses.
type DealStore interface {
	List(ctx context.Context, q recordstore.DealQuery) ([]domain.Deal, error)
	Create(ctx context.Context, d domain.Deal) (domain.Deal, error)
	Update(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type ContactLister interface {
	List(ctx context.Context, q recordstore.ContactQuery) ([]domain.Contact, error)
}

// Outcome describes what a Drop did.
type Outcome int

const (
	// OutcomeIgnored means there was no drag subject.
	OutcomeIgnored Outcome = iota
	// OutcomeUnchanged means the deal was dropped on its own stage.
	OutcomeUnchanged
	OutcomeMoved
	OutcomeRolledBack
	// OutcomeDiscarded means the board was disposed while the store call
	// was in flight and the response was dropped.
	OutcomeDiscarded
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeMoved:
		return "moved"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeRejected:
		return "rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// entry is one deal on the board. While original is non-nil the deal is
// Pending and original is the exact pre-drop value to restore on failure.
// busy marks a non-optimistic store call (edit, delete) in flight. settled
// is the board sequence number of the last store reply applied to the deal.
type entry struct {
	deal     domain.Deal
	original *domain.Deal
	busy     bool
	settled  uint64
}

func (e *entry) pending() bool { return e.original != nil || e.busy }

type Option func(*Board)

func WithNotifier(n Notifier) Option {
	return func(b *Board) {
		if n != nil {
			b.notifier = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// Board is the pipeline controller. The mutex guards only synchronous state
// changes; store calls run with it released and notifications are delivered
// after it is released.
type Board struct {
	stages   *domain.StageRegistry
	deals    DealStore
	contacts ContactLister
	notifier Notifier
	logger   *zap.Logger

	mu          sync.Mutex
	entries     map[int64]*entry
	order       []int64
	contactList []domain.Contact
	dragging    int64
	loaded      bool
	generation  uint64
	disposed    bool

	// seq orders store replies applied locally. A Load only installs a
	// listed row when nothing about that deal settled after the Load began;
	// removed holds deletes for Loads still in flight.
	seq     uint64
	loading int
	removed map[int64]uint64
}

func NewBoard(stages *domain.StageRegistry, deals DealStore, contacts ContactLister, opts ...Option) *Board {
	b := &Board{
		stages:   stages,
		deals:    deals,
		contacts: contacts,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
		entries:  make(map[int64]*entry),
		removed:  make(map[int64]uint64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Stages() *domain.StageRegistry { return b.stages }

// Load replaces the working set with the store's deals and contacts. On
// failure the previous state is kept. Deals with a store call in flight keep
// their local state.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	gen := b.generation
	disposed := b.disposed
	start := b.seq
	if !disposed {
		b.loading++
	}
	b.mu.Unlock()
	if disposed {
		return b.fail(&OpError{Kind: KindLoadFailure, Op: OpLoad, Err: errBoardDisposed})
	}
	defer b.loadDone()

	var (
		deals    []domain.Deal
		contacts []domain.Contact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = b.deals.List(gctx, recordstore.AllDeals)
		if err != nil {
			return fmt.Errorf("listing deals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		contacts, err = b.contacts.List(gctx, recordstore.ContactQuery{Limit: -1})
		if err != nil {
			return fmt.Errorf("listing contacts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return b.fail(&OpError{Kind: KindLoadFailure, Op: OpLoad, Err: err})
	}

	b.mu.Lock()
	if b.stale(gen) {
		b.mu.Unlock()
		return nil
	}
	entries := make(map[int64]*entry, len(deals))
	order := make([]int64, 0, len(deals))
	newer := func(e *entry) bool { return e.pending() || e.settled > start }
	for _, d := range deals {
		if _, dup := entries[d.ID]; dup {
			continue
		}
		if at, gone := b.removed[d.ID]; gone && at > start {
			continue
		}
		if old, ok := b.entries[d.ID]; ok && newer(old) {
			entries[d.ID] = old
		} else {
			entries[d.ID] = &entry{deal: d.Clone()}
		}
		order = append(order, d.ID)
	}
	for _, id := range b.order {
		if old := b.entries[id]; newer(old) {
			if _, ok := entries[id]; !ok {
				entries[id] = old
				order = append(order, id)
			}
		}
	}
	b.entries = entries
	b.order = order
	b.contactList = append([]domain.Contact(nil), contacts...)
	if _, ok := b.entries[b.dragging]; !ok {
		b.dragging = 0
	}
	b.loaded = true
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.logger.Info("board loaded", zap.Int("deals", len(order)), zap.Int("contacts", len(contacts)))
	b.notifier.BoardUpdated(snap)
	return nil
}

// BeginDrag records id as the drag subject. It reports false, leaving any
// previous subject in place, when the deal is unknown or Pending.
func (b *Board) BeginDrag(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return false
	}
	e, ok := b.entries[id]
	if !ok || e.pending() {
		return false
	}
	b.dragging = id
	return true
}

// DragOver is called while the subject hovers over a column. It changes
// nothing; presentation may use it for highlighting.
func (b *Board) DragOver(stageID string) {}

// CancelDrag clears the drag subject without a transition.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.dragging = 0
	b.mu.Unlock()
}

// Dragging returns the current drag subject, or zero.
func (b *Board) Dragging() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dragging
}

// Drop moves the drag subject to stageID. The move is applied locally before
// the store is asked to persist {stage, probability}; a store failure
// restores the deal exactly as it was. The drag subject is cleared on every
// path.
func (b *Board) Drop(ctx context.Context, stageID string) (Outcome, error) {
	b.mu.Lock()
	id := b.dragging
	b.dragging = 0
	if b.disposed || id == 0 {
		b.mu.Unlock()
		return OutcomeIgnored, nil
	}
	e, ok := b.entries[id]
	if !ok {
		b.mu.Unlock()
		return OutcomeRejected, b.fail(&OpError{Kind: KindNotFound, Op: OpStageChange, DealID: id, Err: errNotOnBoard})
	}
	if e.pending() {
		b.mu.Unlock()
		return OutcomeRejected, b.fail(&OpError{Kind: KindBusy, Op: OpStageChange, DealID: id, Err: errBusy})
	}
	if e.deal.StageID == stageID {
		b.mu.Unlock()
		return OutcomeUnchanged, nil
	}
	moved, err := e.deal.ApplyStageTransition(b.stages, stageID)
	if err != nil {
		b.mu.Unlock()
		return OutcomeRejected, b.fail(&OpError{Kind: KindUnknownStage, Op: OpStageChange, DealID: id, Err: err})
	}
	original := e.deal.Clone()
	e.original = &original
	e.deal = moved
	gen := b.generation
	snap := b.snapshotLocked()
	b.mu.Unlock()
	b.notifier.BoardUpdated(snap)

	saved, storeErr := b.deals.Update(ctx, id, domain.StagePatch(moved))

	b.mu.Lock()
	if b.stale(gen) {
		b.mu.Unlock()
		return OutcomeDiscarded, nil
	}
	e = b.entries[id]
	if storeErr != nil {
		e.deal = *e.original
		e.original = nil
		b.settleLocked(e)
		snap = b.snapshotLocked()
		b.mu.Unlock()

		b.logger.Warn("stage change rolled back",
			zap.Int64("deal_id", id), zap.String("from", original.StageID),
			zap.String("to", stageID), zap.Error(storeErr))
		b.notifier.BoardUpdated(snap)
		return OutcomeRolledBack, b.fail(&OpError{Kind: KindStoreFailure, Op: OpStageChange, DealID: id, Err: storeErr})
	}
	e.deal = moved.Overlay(saved)
	e.original = nil
	b.settleLocked(e)
	settled := e.deal.Clone()
	snap = b.snapshotLocked()
	b.mu.Unlock()

	b.logger.Info("deal stage changed",
		zap.Int64("deal_id", id), zap.String("from", original.StageID),
		zap.String("to", settled.StageID), zap.Int("probability", settled.Probability))
	b.notifier.BoardUpdated(snap)
	b.notifier.OperationSucceeded(OpStageChange, settled)
	return OutcomeMoved, nil
}

// Edit merges patch into the deal, validates the result and persists it.
// Nothing local changes until the store confirms.
func (b *Board) Edit(ctx context.Context, id int64, patch domain.DealPatch) (domain.Deal, error) {
	b.mu.Lock()
	e, err := b.claimLocked(OpEdit, id)
	if err != nil {
		b.mu.Unlock()
		return domain.Deal{}, b.fail(err)
	}
	valid, verr := e.deal.WithPatch(patch).Validate(b.stages)
	if verr != nil {
		e.busy = false
		b.mu.Unlock()
		return domain.Deal{}, b.fail(&OpError{Kind: KindValidation, Op: OpEdit, DealID: id, Err: verr})
	}
	gen := b.generation
	snap := b.snapshotLocked()
	b.mu.Unlock()
	b.notifier.BoardUpdated(snap)

	saved, storeErr := b.deals.Update(ctx, id, domain.FullPatch(valid))

	b.mu.Lock()
	if b.stale(gen) {
		b.mu.Unlock()
		return domain.Deal{}, disposedError(OpEdit, id)
	}
	e.busy = false
	if storeErr == nil {
		saved = valid.Overlay(saved)
		e.deal = saved.Clone()
		b.settleLocked(e)
	}
	snap = b.snapshotLocked()
	b.mu.Unlock()
	b.notifier.BoardUpdated(snap)

	if storeErr != nil {
		return domain.Deal{}, b.fail(&OpError{Kind: storeKind(storeErr), Op: OpEdit, DealID: id, Err: storeErr})
	}
	b.logger.Info("deal updated", zap.Int64("deal_id", id))
	b.notifier.OperationSucceeded(OpEdit, saved.Clone())
	return saved, nil
}

// Delete removes the deal from the store, then from the board.
func (b *Board) Delete(ctx context.Context, id int64) error {
	b.mu.Lock()
	e, err := b.claimLocked(OpDelete, id)
	if err != nil {
		b.mu.Unlock()
		return b.fail(err)
	}
	gen := b.generation
	snap := b.snapshotLocked()
	b.mu.Unlock()
	b.notifier.BoardUpdated(snap)

	existed, storeErr := b.deals.Delete(ctx, id)

	b.mu.Lock()
	if b.stale(gen) {
		b.mu.Unlock()
		return disposedError(OpDelete, id)
	}
	e.busy = false
	deleted := e.deal.Clone()
	if storeErr == nil {
		b.removeLocked(id)
		if b.loading > 0 {
			b.seq++
			b.removed[id] = b.seq
		}
	}
	snap = b.snapshotLocked()
	b.mu.Unlock()
	b.notifier.BoardUpdated(snap)

	if storeErr != nil {
		return b.fail(&OpError{Kind: KindStoreFailure, Op: OpDelete, DealID: id, Err: storeErr})
	}
	if !existed {
		b.logger.Info("deal already gone from store", zap.Int64("deal_id", id))
	}
	b.notifier.OperationSucceeded(OpDelete, deleted)
	return nil
}

// Create validates in, asks the store to create it and appends the stored
// record to the board. Invalid input never reaches the store.
func (b *Board) Create(ctx context.Context, in domain.DealInput) (domain.Deal, error) {
	valid, err := in.ToDeal(b.stages).Validate(b.stages)
	if err != nil {
		return domain.Deal{}, b.fail(&OpError{Kind: KindValidation, Op: OpCreate, Err: err})
	}

	b.mu.Lock()
	gen := b.generation
	disposed := b.disposed
	b.mu.Unlock()
	if disposed {
		return domain.Deal{}, disposedError(OpCreate, 0)
	}

	stored, storeErr := b.deals.Create(ctx, valid)
	if storeErr == nil && stored.ID == 0 {
		storeErr = errNoID
	}
	if storeErr != nil {
		return domain.Deal{}, b.fail(&OpError{Kind: storeKind(storeErr), Op: OpCreate, Err: storeErr})
	}
	valid.ID = 0
	created := valid.Overlay(stored)

	b.mu.Lock()
	if b.stale(gen) {
		b.mu.Unlock()
		return domain.Deal{}, disposedError(OpCreate, created.ID)
	}
	if _, ok := b.entries[created.ID]; !ok {
		e := &entry{deal: created.Clone()}
		b.settleLocked(e)
		b.entries[created.ID] = e
		b.order = append(b.order, created.ID)
	}
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.logger.Info("deal created", zap.Int64("deal_id", created.ID), zap.String("stage", created.StageID))
	b.notifier.BoardUpdated(snap)
	b.notifier.OperationSucceeded(OpCreate, created.Clone())
	return created, nil
}

// Dispose detaches the board. Responses to store calls still in flight are
// dropped and later operations do nothing.
func (b *Board) Dispose() {
	b.mu.Lock()
	b.generation++
	b.disposed = true
	b.dragging = 0
	b.mu.Unlock()
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Deal returns the board's current copy of a deal.
func (b *Board) Deal(id int64) (domain.Deal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return domain.Deal{}, false
	}
	return e.deal.Clone(), true
}

// claimLocked marks a settled deal busy for a non-optimistic store call.
func (b *Board) claimLocked(op Op, id int64) (*entry, *OpError) {
	if b.disposed {
		return nil, &OpError{Kind: KindNotFound, Op: op, DealID: id, Err: errBoardDisposed}
	}
	e, ok := b.entries[id]
	if !ok {
		return nil, &OpError{Kind: KindNotFound, Op: op, DealID: id, Err: errNotOnBoard}
	}
	if e.pending() {
		return nil, &OpError{Kind: KindBusy, Op: op, DealID: id, Err: errBusy}
	}
	e.busy = true
	return e, nil
}

func (b *Board) removeLocked(id int64) {
	delete(b.entries, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	if b.dragging == id {
		b.dragging = 0
	}
}

// settleLocked stamps e as holding the newest store reply.
func (b *Board) settleLocked(e *entry) {
	b.seq++
	e.settled = b.seq
}

func (b *Board) loadDone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading--
	if b.loading == 0 {
		clear(b.removed)
	}
}

// disposedError reports a store call whose reply arrived after Dispose. The
// store may have applied it; the board did not.
func disposedError(op Op, id int64) error {
	return &OpError{Kind: KindNotFound, Op: op, DealID: id, Err: errBoardDisposed}
}

func (b *Board) stale(gen uint64) bool {
	return b.disposed || b.generation != gen
}

func (b *Board) snapshotLocked() Snapshot {
	names := make(map[int64]string, len(b.contactList))
	for _, c := range b.contactList {
		names[c.ID] = c.Name
	}

	stages := b.stages.All()
	cols := make([]Column, len(stages))
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		cols[i] = Column{Stage: s}
		index[s.ID] = i
	}
	for _, id := range b.order {
		e := b.entries[id]
		i, ok := index[e.deal.StageID]
		if !ok {
			// A stage removed from the catalog; keep the deal visible in
			// the first column rather than dropping it.
			i = 0
		}
		cols[i].Cards = append(cols[i].Cards, Card{
			Deal:        e.deal.Clone(),
			ContactName: names[e.deal.ContactID],
			Pending:     e.pending(),
		})
		cols[i].TotalValue += e.deal.Value
		cols[i].WeightedValue += e.deal.WeightedValue()
	}
	return Snapshot{
		Columns:  cols,
		Contacts: append([]domain.Contact(nil), b.contactList...),
		Dragging: b.dragging,
		Loaded:   b.loaded,
	}
}

// fail reports err through the notifier and returns it.
func (b *Board) fail(err *OpError) error {
	b.notifier.OperationFailed(err.Kind, err)
	return err
}

func storeKind(err error) ErrorKind {
	if domain.IsValidationError(err) {
		return KindValidation
	}
	if errors.Is(err, domain.ErrNotFound) {
		return KindNotFound
	}
	return KindStoreFailure
}
