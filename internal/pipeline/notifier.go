package pipeline

import (
	"github.com/alexanderramin/dealflow/internal/domain"
	"go.uber.org/zap"
)

// Op names a board operation.
type Op string

const (
	OpLoad        Op = "load"
	OpStageChange Op = "stage_changed"
	OpCreate      Op = "created"
	OpEdit        Op = "updated"
	OpDelete      Op = "deleted"
)

// Notifier receives board events. Calls are made without the board lock held,
// from whichever goroutine completed the operation.
type Notifier interface {
	BoardUpdated(s Snapshot)
	OperationFailed(kind ErrorKind, err error)
	OperationSucceeded(op Op, d domain.Deal)
}

type nopNotifier struct{}

func (nopNotifier) BoardUpdated(Snapshot) {}
func (nopNotifier) OperationFailed(ErrorKind, error) {}
func (nopNotifier) OperationSucceeded(Op, domain.Deal) {}

// MultiNotifier fans each event out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) BoardUpdated(s Snapshot) {
	for _, n := range m {
		n.BoardUpdated(s)
	}
}

func (m MultiNotifier) OperationFailed(kind ErrorKind, err error) {
	for _, n := range m {
		n.OperationFailed(kind, err)
	}
}

func (m MultiNotifier) OperationSucceeded(op Op, d domain.Deal) {
	for _, n := range m {
		n.OperationSucceeded(op, d)
	}
}

// LogNotifier writes operation outcomes to a zap logger. Board updates are
// logged at debug level only.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) BoardUpdated(s Snapshot) {
	l.Logger.Debug("board updated", zap.Int("deals", s.DealCount()))
}

func (l LogNotifier) OperationFailed(kind ErrorKind, err error) {
	l.Logger.Warn("pipeline operation failed", zap.String("kind", string(kind)), zap.Error(err))
}

func (l LogNotifier) OperationSucceeded(op Op, d domain.Deal) {
	l.Logger.Info("pipeline operation succeeded",
		zap.String("op", string(op)),
		zap.Int64("deal_id", d.ID),
		zap.String("stage", d.StageID),
		zap.Int("probability", d.Probability))
}
