package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-retail-ws/pkg/apperror"
)

// Recorder tracks service orchestrations. All methods are safe on a nil
// receiver so services can run without metrics in tests.
type Recorder struct {
	duration   *prometheus.HistogramVec
	total      *prometheus.CounterVec
	stockUnits *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return &Recorder{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retail_operation_duration_seconds",
		Help:    "Duration of service operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_operations_total",
		Help: "Service operations by outcome code.",
	}, []string{"operation", "code"})
	stockUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_stock_units_total",
		Help: "Units of stock moved, split by direction and reason kind.",
	}, []string{"direction", "kind"})
	reg.MustRegister(duration, total, stockUnits)
	return &Recorder{duration: duration, total: total, stockUnits: stockUnits}
}

// Observe records one finished operation. Typical use:
//
//	defer func(start time.Time) { s.metrics.Observe("adjust_inventory", start, err) }(time.Now())
func (r *Recorder) Observe(operation string, started time.Time, err error) {
	if r == nil || r.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	r.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	code := "OK"
	if err != nil {
		code = string(apperror.CodeOf(err))
	}
	r.total.WithLabelValues(op, code).Inc()
}

func (r *Recorder) StockMoved(kind string, delta int) {
	if r == nil || r.stockUnits == nil || delta == 0 {
		return
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
		delta = -delta
	}
	r.stockUnits.WithLabelValues(direction, normalizeLabel(kind)).Add(float64(delta))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
