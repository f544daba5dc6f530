package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"golang.org/x/sync/errgroup"
)

const (
	recentActivityCount = 10
	trendDays           = 14
)

// StageStat is the deal count and value in one stage.
type StageStat struct {
	Stage domain.Stage
	Count int
	Value float64
}

// DashboardSummary holds the aggregate pipeline metrics.
type DashboardSummary struct {
	TotalPipelineValue float64
	DealCount          int
	ContactCount       int
	AverageDealSize    float64
	// ConversionRate is the share of deals in the terminal stage, 0-100.
	ConversionRate   float64
	WeightedPipeline float64
	Stages           []StageStat
	RecentActivities []domain.Activity
	// ActivityTrend counts activities per day, oldest first, ending today.
	ActivityTrend []float64
}

type dashboardService struct {
	store  *recordstore.Store
	stages *domain.StageRegistry
	now    func() time.Time
}

func NewDashboardService(store *recordstore.Store, stages *domain.StageRegistry) DashboardService {
	return &dashboardService{store: store, stages: stages, now: time.Now}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var (
		deals      []domain.Deal
		contacts   []domain.Contact
		activities []domain.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if deals, err = s.store.Deals.List(gctx, recordstore.AllDeals); err != nil {
			return fmt.Errorf("listing deals: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if contacts, err = s.store.Contacts.List(gctx, recordstore.ContactQuery{Limit: -1}); err != nil {
			return fmt.Errorf("listing contacts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if activities, err = s.store.Activities.List(gctx, recordstore.ActivityQuery{Limit: -1}); err != nil {
			return fmt.Errorf("listing activities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := aggregateDeals(deals, s.stages)
	summary.ContactCount = len(contacts)
	recent := activities
	if len(recent) > recentActivityCount {
		recent = recent[:recentActivityCount]
	}
	summary.RecentActivities = recent
	summary.ActivityTrend = activityTrend(activities, s.now(), trendDays)
	return summary, nil
}

// aggregateDeals computes value totals, conversion rate and per-stage stats.
// Deals in stages missing from the catalog count toward totals only.
func aggregateDeals(deals []domain.Deal, stages *domain.StageRegistry) *DashboardSummary {
	sum := &DashboardSummary{DealCount: len(deals)}
	index := make(map[string]int, stages.Len())
	for i, st := range stages.All() {
		sum.Stages = append(sum.Stages, StageStat{Stage: st})
		index[st.ID] = i
	}

	closed := 0
	for _, d := range deals {
		sum.TotalPipelineValue += d.Value
		sum.WeightedPipeline += d.WeightedValue()
		if stages.IsTerminal(d.StageID) {
			closed++
		}
		if i, ok := index[d.StageID]; ok {
			sum.Stages[i].Count++
			sum.Stages[i].Value += d.Value
		}
	}
	if len(deals) > 0 {
		sum.AverageDealSize = sum.TotalPipelineValue / float64(len(deals))
		sum.ConversionRate = float64(closed) / float64(len(deals)) * 100
	}
	return sum
}

func activityTrend(activities []domain.Activity, now time.Time, days int) []float64 {
	trend := make([]float64, days)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	first := today.AddDate(0, 0, -(days - 1))
	for _, a := range activities {
		ay, am, ad := a.Date.In(now.Location()).Date()
		day := time.Date(ay, am, ad, 0, 0, 0, 0, now.Location())
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := int(day.Sub(first).Hours()/24 + 0.5)
		if idx >= 0 && idx < days {
			trend[idx]++
		}
	}
	return trend
}
