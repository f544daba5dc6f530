package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDeals(t *testing.T) {
	reg := domain.DefaultStageRegistry()
	deals := []domain.Deal{
		{Value: 1000, StageID: "lead", Probability: 10},
		{Value: 3000, StageID: "proposal", Probability: 50},
		{Value: 2000, StageID: "closed", Probability: 100},
		{Value: 2000, StageID: "closed", Probability: 100},
	}
	sum := aggregateDeals(deals, reg)

	assert.Equal(t, 4, sum.DealCount)
	assert.InDelta(t, 8000.0, sum.TotalPipelineValue, 0.001)
	assert.InDelta(t, 2000.0, sum.AverageDealSize, 0.001)
	assert.InDelta(t, 50.0, sum.ConversionRate, 0.001)
	assert.InDelta(t, 100+1500+2000+2000.0, sum.WeightedPipeline, 0.001)

	require.Len(t, sum.Stages, 5)
	assert.Equal(t, "lead", sum.Stages[0].Stage.ID)
	assert.Equal(t, 1, sum.Stages[0].Count)
	assert.Equal(t, 2, sum.Stages[4].Count)
	assert.InDelta(t, 4000.0, sum.Stages[4].Value, 0.001)
}

func TestAggregateDeals_Empty(t *testing.T) {
	sum := aggregateDeals(nil, domain.DefaultStageRegistry())
	assert.Zero(t, sum.AverageDealSize)
	assert.Zero(t, sum.ConversionRate)
	assert.Len(t, sum.Stages, 5)
}

func TestActivityTrend(t *testing.T) {
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	acts := []domain.Activity{
		{Date: now},
		{Date: now.Add(-2 * time.Hour)},
		{Date: now.AddDate(0, 0, -13)},
		{Date: now.AddDate(0, 0, -14)}, // outside the window
		{Date: now.AddDate(0, 0, 1)},   // future
	}
	trend := activityTrend(acts, now, 14)
	require.Len(t, trend, 14)
	assert.Equal(t, 2.0, trend[13])
	assert.Equal(t, 1.0, trend[0])
	var total float64
	for _, v := range trend {
		total += v
	}
	assert.Equal(t, 3.0, total)
}

func TestDashboardService_Summary(t *testing.T) {
	env := newTestEnv(t)
	c := env.contact(t, "Ada")
	env.contact(t, "Grace")
	env.deal(t, c.ID, "Won", testutil.WithStage("closed", 100), testutil.WithValue(4000))
	env.deal(t, c.ID, "Open", testutil.WithValue(1000))
	for i := 0; i < 12; i++ {
		env.activity(t, c.ID, "touch", testutil.WithActivityDate(time.Now().UTC().Add(-time.Duration(i)*time.Minute)))
	}

	sum, err := NewDashboardService(env.store, env.stages).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.DealCount)
	assert.Equal(t, 2, sum.ContactCount)
	assert.InDelta(t, 5000.0, sum.TotalPipelineValue, 0.001)
	assert.InDelta(t, 50.0, sum.ConversionRate, 0.001)
	assert.InDelta(t, 4100.0, sum.WeightedPipeline, 0.001)
	assert.Len(t, sum.RecentActivities, 10)
	assert.Len(t, sum.ActivityTrend, 14)
}
