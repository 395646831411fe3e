package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-retail-ws/pkg/apperror"
)

func TestRecorderExportsOutcomeCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	start := time.Now().Add(-50 * time.Millisecond)
	rec.Observe("adjust_inventory", start, nil)
	rec.Observe("adjust_inventory", start, apperror.New(apperror.CodeInvariantViolation, "negative"))
	rec.Observe("adjust_inventory", start, errors.New("db down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	for code, want := range map[string]float64{"OK": 1, "INVARIANT_VIOLATION": 1, "INTERNAL_ERROR": 1} {
		got, err := counterValue(mfs, "retail_operations_total", map[string]string{"operation": "adjust_inventory", "code": code})
		require.NoError(t, err)
		assert.Equal(t, want, got, code)
	}

	mf := findFamily(mfs, "retail_operation_duration_seconds")
	require.NotNil(t, mf)
	assert.EqualValues(t, 3, mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestRecorderStockMoved(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.StockMoved("ADJUSTMENT", -5)
	rec.StockMoved("ADJUSTMENT", -2)
	rec.StockMoved("BATCH_RECEIPT", 10)
	rec.StockMoved("BATCH_RECEIPT", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	out, err := counterValue(mfs, "retail_stock_units_total", map[string]string{"direction": "out", "kind": "ADJUSTMENT"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, out)

	in, err := counterValue(mfs, "retail_stock_units_total", map[string]string{"direction": "in", "kind": "BATCH_RECEIPT"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, in)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Observe("x", time.Now(), nil)
	rec.StockMoved("x", 3)

	New(nil).Observe("x", time.Now(), nil)
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matches(metric, labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q has no series %v", name, labels)
}

func matches(metric *dto.Metric, labels map[string]string) bool {
	hits := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			hits++
		}
	}
	return hits == len(labels)
}
