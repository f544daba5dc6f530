// Package events publishes pipeline notifications to NATS so other processes
// can follow deal movement.
//
// Subjects:
//
//	{prefix}.deal.stage_changed
//	{prefix}.deal.created
//	{prefix}.deal.updated
//	{prefix}.deal.deleted
//	{prefix}.deal.failed
//	{prefix}.board.updated
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const DefaultPrefix = "dealflow"

// DealEvent is the payload of every deal subject.
type DealEvent struct {
	Op     string                  `json:"op"`
	Deal   *recordstore.DealRecord `json:"deal,omitempty"`
	DealID int64                   `json:"dealId,omitempty"`
	Kind   string                  `json:"kind,omitempty"`
	Error  string                  `json:"error,omitempty"`
	At     time.Time               `json:"at"`
}

// StageSummary is one column in a board.updated event.
type StageSummary struct {
	Stage string  `json:"stage"`
	Deals int     `json:"deals"`
	Value float64 `json:"value"`
}

type BoardEvent struct {
	Stages        []StageSummary `json:"stages"`
	WeightedValue float64        `json:"weightedValue"`
	At            time.Time      `json:"at"`
}

// Publisher is a pipeline.Notifier that writes to NATS. Publish errors are
// logged and otherwise ignored; the board never waits on the event stream.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
	now    func() time.Time
	owned  bool
}

// Connect dials url and returns a Publisher that closes the connection on
// Close.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("dealflow"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	p := NewPublisher(nc, prefix, logger)
	p.owned = true
	return p, nil
}

func NewPublisher(nc *nats.Conn, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger, now: time.Now}
}

// Subject returns the full subject for a suffix such as "deal.created".
func (p *Publisher) Subject(suffix string) string {
	return p.prefix + "." + suffix
}

func (p *Publisher) BoardUpdated(s pipeline.Snapshot) {
	ev := BoardEvent{WeightedValue: s.WeightedValue(), At: p.now().UTC()}
	for _, col := range s.Columns {
		ev.Stages = append(ev.Stages, StageSummary{Stage: col.Stage.ID, Deals: len(col.Cards), Value: col.TotalValue})
	}
	p.publish(p.Subject("board.updated"), ev)
}

func (p *Publisher) OperationFailed(kind pipeline.ErrorKind, err error) {
	ev := DealEvent{Kind: string(kind), At: p.now().UTC()}
	if err != nil {
		ev.Error = err.Error()
	}
	var oe *pipeline.OpError
	if errors.As(err, &oe) {
		ev.Op = string(oe.Op)
		ev.DealID = oe.DealID
	}
	p.publish(p.Subject("deal.failed"), ev)
}

func (p *Publisher) OperationSucceeded(op pipeline.Op, d domain.Deal) {
	rec := recordstore.DealToRecord(d)
	p.publish(p.Subject("deal."+string(op)), DealEvent{Op: string(op), Deal: &rec, DealID: d.ID, At: p.now().UTC()})
}

// Flush waits until the server has processed everything published so far.
func (p *Publisher) Flush() error {
	return p.nc.Flush()
}

func (p *Publisher) Close() {
	if p.owned {
		_ = p.nc.Drain()
	}
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}
