package pipeline

import "github.com/alexanderramin/dealflow/internal/domain"

// Card is one deal as shown on the board.
type Card struct {
	Deal        domain.Deal
	ContactName string
	// Pending is set while a store call for this deal is unresolved.
	Pending bool
}

// Column is one stage with its deals in store order.
type Column struct {
	Stage         domain.Stage
	Cards         []Card
	TotalValue    float64
	WeightedValue float64
}

// Snapshot is an immutable copy of the board taken under the lock.
type Snapshot struct {
	Columns  []Column
	Contacts []domain.Contact
	Dragging int64
	Loaded   bool
}

// Column returns the column for stageID.
func (s Snapshot) Column(stageID string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Stage.ID == stageID {
			return c, true
		}
	}
	return Column{}, false
}

// Card finds a deal anywhere on the board.
func (s Snapshot) Card(id int64) (Card, bool) {
	for _, col := range s.Columns {
		for _, c := range col.Cards {
			if c.Deal.ID == id {
				return c, true
			}
		}
	}
	return Card{}, false
}

func (s Snapshot) DealCount() int {
	n := 0
	for _, col := range s.Columns {
		n += len(col.Cards)
	}
	return n
}

func (s Snapshot) TotalValue() float64 {
	var v float64
	for _, col := range s.Columns {
		v += col.TotalValue
	}
	return v
}

func (s Snapshot) WeightedValue() float64 {
	var v float64
	for _, col := range s.Columns {
		v += col.WeightedValue
	}
	return v
}
