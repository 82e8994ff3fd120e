package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefront_RecordsCartAndOrders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CartMutation("add", nil)
	m.CartMutation("add", nil)
	m.CartMutation("add", errors.New("boom"))
	m.OrderCreated(38500, nil)
	m.OrderCreated(0, errors.New("boom"))
	m.ObserveRequest("GET", "/api/cart/:cartId", 200, 50*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, counterValue(t, mfs, "storefront_cart_mutations_total", map[string]string{"op": "add", "result": ResultOK}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "storefront_cart_mutations_total", map[string]string{"op": "add", "result": ResultError}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "storefront_orders_created_total", map[string]string{"result": ResultOK}))

	totals := findFamily(mfs, "storefront_order_total_amount")
	require.NotNil(t, totals)
	assert.Equal(t, uint64(1), totals.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 38500.0, totals.GetMetric()[0].GetHistogram().GetSampleSum())

	assert.NotNil(t, findFamily(mfs, "storefront_http_request_duration_seconds"))
}

func TestStorefront_NilSafe(t *testing.T) {
	var m *Storefront
	assert.NotPanics(t, func() {
		m.CartMutation("add", nil)
		m.OrderCreated(1, nil)
		m.ObserveRequest("GET", "/", 200, time.Second)
	})

	unregistered := New(nil)
	assert.NotPanics(t, func() { unregistered.CartMutation("add", nil) })
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findFamily(mfs, name)
	require.NotNil(t, mf, "metric %s not found", name)
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s missing labels %v", name, labels)
	return 0
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; ok && v == p.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
