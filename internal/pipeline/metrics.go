package pipeline

import (
	"errors"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNotifier exports board activity as Prometheus metrics.
type MetricsNotifier struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	stageDeals *prometheus.GaugeVec
	stageValue *prometheus.GaugeVec
	weighted   prometheus.Gauge
}

// NewMetricsNotifier registers the pipeline metrics with reg.
func NewMetricsNotifier(reg prometheus.Registerer) *MetricsNotifier {
	f := promauto.With(reg)
	return &MetricsNotifier{
		// Labels: op (stage_changed, created, updated, deleted)
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "pipeline",
			Name:      "operations_total",
			Help:      "Board operations confirmed by the record store",
		}, []string{"op"}),
		// Labels: op, kind (ValidationError, UnknownStage, StoreFailure, ...)
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealflow",
			Subsystem: "pipeline",
			Name:      "failures_total",
			Help:      "Board operations that failed, by error kind",
		}, []string{"op", "kind"}),
		stageDeals: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dealflow",
			Subsystem: "pipeline",
			Name:      "stage_deals",
			Help:      "Deals currently in each stage",
		}, []string{"stage"}),
		stageValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dealflow",
			Subsystem: "pipeline",
			Name:      "stage_value",
			Help:      "Total deal value currently in each stage",
		}, []string{"stage"}),
		weighted: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "dealflow",
			Subsystem: "pipeline",
			Name:      "weighted_value",
			Help:      "Sum of value times probability across the board",
		}),
	}
}

func (m *MetricsNotifier) BoardUpdated(s Snapshot) {
	for _, col := range s.Columns {
		m.stageDeals.WithLabelValues(col.Stage.ID).Set(float64(len(col.Cards)))
		m.stageValue.WithLabelValues(col.Stage.ID).Set(col.TotalValue)
	}
	m.weighted.Set(s.WeightedValue())
}

func (m *MetricsNotifier) OperationFailed(kind ErrorKind, err error) {
	op := "unknown"
	var oe *OpError
	if errors.As(err, &oe) {
		op = string(oe.Op)
	}
	m.failures.WithLabelValues(op, string(kind)).Inc()
}

func (m *MetricsNotifier) OperationSucceeded(op Op, _ domain.Deal) {
	m.operations.WithLabelValues(string(op)).Inc()
}
