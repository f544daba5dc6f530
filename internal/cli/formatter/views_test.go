package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/pipeline"
	"github.com/alexanderramin/dealflow/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestFormatDeal(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	d := domain.Deal{
		ID: 4, Title: "Retrofit", Value: 20000, StageID: "negotiation", Probability: 75,
		ContactID: 1, Notes: "Wants a pilot first", Tags: []string{"hot"},
	}
	acts := []domain.Activity{{ID: 1, Type: domain.ActivityCall, Description: "Pricing call", Date: goldenNow.Add(-time.Hour)}}

	out := stripANSI(FormatDeal(d, "Ada Lovelace", reg, acts, goldenNow))

	assert.Contains(t, out, "#4 RETROFIT")
	assert.Contains(t, out, "● Negotiation")
	assert.Contains(t, out, "$20,000")
	assert.Contains(t, out, "$15,000", "weighted value")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "#hot")
	assert.Contains(t, out, "Wants a pilot first")
	assert.Contains(t, out, "Pricing call")
}

func TestFormatStageMove(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	d := domain.Deal{ID: 4, Title: "Retrofit", StageID: "proposal", Probability: 50}

	out := stripANSI(FormatStageMove(d, "lead", reg))
	assert.Equal(t, "Moved #4 Retrofit  Lead → ● Proposal (50%)\n", out)
}

func TestFormatContact(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	c := domain.Contact{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", CreatedAt: goldenNow}
	deals := []domain.Deal{
		{ID: 1, Title: "Engine", Value: 1000, StageID: "lead"},
		{ID: 2, Title: "Won one", Value: 5000, StageID: "closed"},
	}

	out := stripANSI(FormatContact(c, deals, nil, reg, goldenNow))

	assert.Contains(t, out, "AL  ADA LOVELACE")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "Open value $1,000", "closed deals are not open")
}

func TestFormatDashboard(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	stats := make([]service.StageStat, 0, reg.Len())
	for _, s := range reg.All() {
		stats = append(stats, service.StageStat{Stage: s})
	}
	stats[0].Count, stats[0].Value = 2, 3000
	stats[4].Count, stats[4].Value = 1, 5000

	summary := &service.DashboardSummary{
		TotalPipelineValue: 8000,
		DealCount:          3,
		ContactCount:       2,
		AverageDealSize:    2666.67,
		ConversionRate:     33.3,
		WeightedPipeline:   5300,
		Stages:             stats,
		ActivityTrend:      make([]float64, 14),
		RecentActivities: []domain.Activity{
			{Type: domain.ActivityEmail, Description: "Follow-up", Date: goldenNow, ContactID: 9},
		},
	}

	out := stripANSI(FormatDashboard(summary, map[int64]string{9: "Grace"}, goldenNow))

	for _, want := range []string{"$8,000", "$5,300", "$2,667", "33%", "PIPELINE BY STAGE", "no activity", "Follow-up · Grace"} {
		assert.Contains(t, out, want)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Lead") {
			assert.Contains(t, line, "$3,000")
		}
	}
}

func TestFormatDashboard_Sparkline(t *testing.T) {
	summary := &service.DashboardSummary{ActivityTrend: []float64{0, 1, 3, 2}}
	out := stripANSI(FormatDashboard(summary, nil, goldenNow))
	assert.NotContains(t, out, "no activity")
	assert.Contains(t, out, "Nothing logged yet.")
}

func TestRenderBoard(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	stages := reg.All()
	snap := pipeline.Snapshot{
		Loaded: true,
		Columns: []pipeline.Column{
			{Stage: stages[0], Cards: []pipeline.Card{
				{Deal: domain.Deal{ID: 1, Title: "Alpha", Value: 1000, Probability: 10}, ContactName: "Ada"},
				{Deal: domain.Deal{ID: 2, Title: "Beta", Value: 2000, Probability: 10}, ContactName: "Bob", Pending: true},
			}, TotalValue: 3000, WeightedValue: 300},
			{Stage: stages[1]},
			{Stage: stages[2]},
			{Stage: stages[3]},
			{Stage: stages[4]},
		},
	}

	out := stripANSI(RenderBoard(snap, BoardView{Width: 120, Height: 30}))
	assert.Contains(t, out, "Lead 2")
	assert.Contains(t, out, "Closed 0")
	assert.Contains(t, out, "$3,000 · $300 wtd")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "⟳ Beta", "pending cards are marked")
	assert.Contains(t, out, "empty")

	t.Run("held card and drop target", func(t *testing.T) {
		snap.Dragging = 1
		out := stripANSI(RenderBoard(snap, BoardView{Width: 120, Height: 30, Col: 2}))
		assert.Contains(t, out, "✋ Alpha")
		assert.Contains(t, out, "▼ Proposal 0")
	})

	t.Run("overflow", func(t *testing.T) {
		snap.Dragging = 0
		out := stripANSI(RenderBoard(snap, BoardView{Width: 120, Height: 7}))
		assert.Contains(t, out, "↓ 1 more")
	})

	t.Run("no stages", func(t *testing.T) {
		assert.Equal(t, "No stages configured.", stripANSI(RenderBoard(pipeline.Snapshot{}, BoardView{})))
	})
}
