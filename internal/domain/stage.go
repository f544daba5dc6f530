package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownStage is returned when a stage id is not in the registry.
var ErrUnknownStage = errors.New("unknown stage")

// Stage is one column of the sales pipeline.
type Stage struct {
	ID                 string
	Name               string
	Rank               int
	DefaultProbability int
}

// StageRegistry is an immutable, rank-ordered catalog of pipeline stages.
// All methods are safe for concurrent use.
type StageRegistry struct {
	stages []Stage
	index  map[string]int
}

// DefaultStages returns the standard five-stage sales pipeline.
func DefaultStages() []Stage {
	return []Stage{
		{ID: "lead", Name: "Lead", Rank: 1, DefaultProbability: 10},
		{ID: "qualified", Name: "Qualified", Rank: 2, DefaultProbability: 25},
		{ID: "proposal", Name: "Proposal", Rank: 3, DefaultProbability: 50},
		{ID: "negotiation", Name: "Negotiation", Rank: 4, DefaultProbability: 75},
		{ID: "closed", Name: "Closed", Rank: 5, DefaultProbability: 100},
	}
}

// DefaultStageRegistry returns a registry over DefaultStages.
func DefaultStageRegistry() *StageRegistry {
	reg, err := NewStageRegistry(DefaultStages())
	if err != nil {
		panic(fmt.Sprintf("default stage catalog is invalid: %v", err))
	}
	return reg
}

// NewStageRegistry validates the catalog and returns a registry over a copy
// of it. Stages may be given in any order; they are sorted by rank. Ranks must
// be contiguous from 1, ids unique, probabilities within 0-100, and only the
// last stage may carry probability 100.
func NewStageRegistry(stages []Stage) (*StageRegistry, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("stage catalog is empty")
	}

	ordered := make([]Stage, len(stages))
	copy(ordered, stages)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Rank < ordered[j-1].Rank; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	index := make(map[string]int, len(ordered))
	for i, s := range ordered {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			return nil, fmt.Errorf("stage at rank %d has no id", s.Rank)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate stage id %q", s.ID)
		}
		if s.Rank != i+1 {
			return nil, fmt.Errorf("stage %q has rank %d, expected %d (ranks must be contiguous from 1)", s.ID, s.Rank, i+1)
		}
		if s.DefaultProbability < 0 || s.DefaultProbability > 100 {
			return nil, fmt.Errorf("stage %q probability %d out of range 0-100", s.ID, s.DefaultProbability)
		}
		last := i == len(ordered)-1
		if last && s.DefaultProbability != 100 {
			return nil, fmt.Errorf("terminal stage %q must have probability 100, got %d", s.ID, s.DefaultProbability)
		}
		if !last && s.DefaultProbability == 100 {
			return nil, fmt.Errorf("stage %q has probability 100 but is not the terminal stage", s.ID)
		}
		if s.Name == "" {
			s.Name = Capitalize(s.ID)
		}
		ordered[i] = s
		index[s.ID] = i
	}

	return &StageRegistry{stages: ordered, index: index}, nil
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// All returns the stages ascending by rank. The slice is a copy.
func (r *StageRegistry) All() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Len returns the number of stages.
func (r *StageRegistry) Len() int { return len(r.stages) }

// ByID looks up a stage, failing with ErrUnknownStage.
func (r *StageRegistry) ByID(id string) (Stage, error) {
	i, ok := r.index[id]
	if !ok {
		return Stage{}, fmt.Errorf("%w: %q", ErrUnknownStage, id)
	}
	return r.stages[i], nil
}

// Has reports whether id names a stage in the catalog.
func (r *StageRegistry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// DefaultProbabilityFor returns the probability a deal receives when it is
// moved into the stage.
func (r *StageRegistry) DefaultProbabilityFor(id string) (int, error) {
	s, err := r.ByID(id)
	if err != nil {
		return 0, err
	}
	return s.DefaultProbability, nil
}

// First returns the lowest-rank stage, where new deals start.
func (r *StageRegistry) First() Stage { return r.stages[0] }

// Terminal returns the last stage by rank.
func (r *StageRegistry) Terminal() Stage { return r.stages[len(r.stages)-1] }

// IsTerminal reports whether id is the terminal ("closed") stage.
func (r *StageRegistry) IsTerminal(id string) bool {
	return id == r.Terminal().ID
}
