package lstore

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

const (
	opGet = "get"
	opSet = "set"
)

// opMetrics holds the per operation series of one store
type opMetrics struct {
	total    *metrics.Counter
	errors   *metrics.Counter
	duration *metrics.Histogram
}

// storeMetrics holds the series of one store. Stores with the same namespace
// share their series since GetOrCreate* returns the registered instance.
type storeMetrics struct {
	initOK     *metrics.Counter
	initFailed *metrics.Counter
	ops        map[string]opMetrics
}

func newStoreMetrics(namespace string) *storeMetrics {
	m := &storeMetrics{
		initOK:     metrics.GetOrCreateCounter(fmt.Sprintf(`kvshim_store_init_total{namespace=%q,result="ok"}`, namespace)),
		initFailed: metrics.GetOrCreateCounter(fmt.Sprintf(`kvshim_store_init_total{namespace=%q,result="error"}`, namespace)),
		ops:        make(map[string]opMetrics, 2),
	}
	for _, op := range []string{opGet, opSet} {
		m.ops[op] = opMetrics{
			total:    metrics.GetOrCreateCounter(fmt.Sprintf(`kvshim_store_ops_total{namespace=%q,op=%q}`, namespace, op)),
			errors:   metrics.GetOrCreateCounter(fmt.Sprintf(`kvshim_store_op_errors_total{namespace=%q,op=%q}`, namespace, op)),
			duration: metrics.GetOrCreateHistogram(fmt.Sprintf(`kvshim_store_op_duration_seconds{namespace=%q,op=%q}`, namespace, op)),
		}
	}
	return m
}

// track starts measuring an operation. The returned function records the outcome.
func (m *storeMetrics) track(op string) func(err error) {
	start := time.Now()
	series := m.ops[op]
	return func(err error) {
		series.total.Inc()
		if err != nil {
			series.errors.Inc()
		}
		series.duration.UpdateDuration(start)
	}
}
