package domain

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStageRegistry_Order(t *testing.T) {
	reg := DefaultStageRegistry()

	all := reg.All()
	require.Len(t, all, 5)
	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
		assert.Equal(t, i+1, s.Rank)
	}
	assert.Equal(t, []string{"lead", "qualified", "proposal", "negotiation", "closed"}, ids)
	assert.Equal(t, "lead", reg.First().ID)
	assert.Equal(t, "closed", reg.Terminal().ID)
	assert.True(t, reg.IsTerminal("closed"))
	assert.False(t, reg.IsTerminal("lead"))
}

func TestStageRegistry_DefaultProbabilityFor(t *testing.T) {
	reg := DefaultStageRegistry()
	cases := map[string]int{"lead": 10, "qualified": 25, "proposal": 50, "negotiation": 75, "closed": 100}
	for id, want := range cases {
		got, err := reg.DefaultProbabilityFor(id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	_, err := reg.DefaultProbabilityFor("won")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestStageRegistry_AllReturnsCopy(t *testing.T) {
	reg := DefaultStageRegistry()
	all := reg.All()
	all[0].ID = "mutated"
	assert.Equal(t, "lead", reg.First().ID)
}

func TestNewStageRegistry_SortsByRankAndNames(t *testing.T) {
	reg, err := NewStageRegistry([]Stage{
		{ID: "won", Rank: 3, DefaultProbability: 100},
		{ID: "new", Rank: 1, DefaultProbability: 5},
		{ID: "demo", Rank: 2, DefaultProbability: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", reg.First().ID)
	assert.Equal(t, "won", reg.Terminal().ID)
	s, err := reg.ByID("demo")
	require.NoError(t, err)
	assert.Equal(t, "Demo", s.Name)
}

func TestNewStageRegistry_NamesMultibyteIDs(t *testing.T) {
	reg, err := NewStageRegistry([]Stage{
		{ID: "ärger", Rank: 1, DefaultProbability: 10},
		{ID: "éxito", Rank: 2, DefaultProbability: 100},
	})
	require.NoError(t, err)
	for _, s := range reg.All() {
		assert.True(t, utf8.ValidString(s.Name), "%q", s.Name)
	}
	s, err := reg.ByID("ärger")
	require.NoError(t, err)
	assert.Equal(t, "Ärger", s.Name)
	assert.Equal(t, "Éxito", reg.Terminal().Name)
}

func TestNewStageRegistry_RejectsInvalidCatalogs(t *testing.T) {
	cases := []struct {
		name   string
		stages []Stage
		want   string
	}{
		{"empty", nil, "empty"},
		{"missing id", []Stage{{Rank: 1, DefaultProbability: 100}}, "no id"},
		{"duplicate", []Stage{
			{ID: "a", Rank: 1, DefaultProbability: 10},
			{ID: "a", Rank: 2, DefaultProbability: 100},
		}, "duplicate"},
		{"gap in ranks", []Stage{
			{ID: "a", Rank: 1, DefaultProbability: 10},
			{ID: "b", Rank: 3, DefaultProbability: 100},
		}, "contiguous"},
		{"probability out of range", []Stage{
			{ID: "a", Rank: 1, DefaultProbability: 120},
			{ID: "b", Rank: 2, DefaultProbability: 100},
		}, "out of range"},
		{"terminal below 100", []Stage{
			{ID: "a", Rank: 1, DefaultProbability: 10},
			{ID: "b", Rank: 2, DefaultProbability: 90},
		}, "terminal"},
		{"early 100", []Stage{
			{ID: "a", Rank: 1, DefaultProbability: 100},
			{ID: "b", Rank: 2, DefaultProbability: 100},
		}, "not the terminal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStageRegistry(tc.stages)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", Capitalize(""))
	assert.Equal(t, "Call", Capitalize("call"))
	assert.Equal(t, "Ñame", Capitalize("ñame"))
	assert.Equal(t, "Über", Capitalize("über"))
}
