package pipeline

import (
	"context"
	"testing"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsNotifier_TracksBoard(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetricsNotifier(reg)
	store := newFakeStore(dealSeven())
	b := NewBoard(domain.DefaultStageRegistry(), store, contactStore{store},
		WithNotifier(MultiNotifier{metrics, &recorder{}}))
	require.NoError(t, b.Load(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stageDeals.WithLabelValues("lead")))
	assert.Equal(t, 5000.0, testutil.ToFloat64(metrics.stageValue.WithLabelValues("lead")))

	require.True(t, b.BeginDrag(7))
	_, err := b.Drop(context.Background(), "negotiation")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues("stage_changed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.stageDeals.WithLabelValues("lead")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stageDeals.WithLabelValues("negotiation")))
	assert.InDelta(t, 3750.0, testutil.ToFloat64(metrics.weighted), 0.001)

	store.updateErr = errStoreDown
	require.True(t, b.BeginDrag(7))
	_, err = b.Drop(context.Background(), "closed")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("stage_changed", "StoreFailure")))
}

func TestLogNotifier_WritesOutcomes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := newFakeStore(dealSeven())
	store.updateErr = errStoreDown
	b := NewBoard(domain.DefaultStageRegistry(), store, contactStore{store},
		WithNotifier(LogNotifier{Logger: zap.New(core)}))
	require.NoError(t, b.Load(context.Background()))

	require.True(t, b.BeginDrag(7))
	_, _ = b.Drop(context.Background(), "proposal")

	failed := logs.FilterMessage("pipeline operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "StoreFailure", failed[0].ContextMap()["kind"])
	assert.Zero(t, logs.FilterMessage("board updated").Len(), "board updates log at debug")
}

func TestBoard_LogsRollback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := newFakeStore(dealSeven())
	store.updateErr = errStoreDown
	b := NewBoard(domain.DefaultStageRegistry(), store, contactStore{store}, WithLogger(zap.New(core)))
	require.NoError(t, b.Load(context.Background()))

	require.True(t, b.BeginDrag(7))
	_, _ = b.Drop(context.Background(), "proposal")

	entries := logs.FilterMessage("stage change rolled back").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(7), fields["deal_id"])
	assert.Equal(t, "lead", fields["from"])
	assert.Equal(t, "proposal", fields["to"])
}
