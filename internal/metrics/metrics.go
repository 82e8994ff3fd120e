package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Storefront records HTTP and cart/order activity. A nil *Storefront is valid
// and records nothing.
type Storefront struct {
	httpDuration  *prometheus.HistogramVec
	cartMutations *prometheus.CounterVec
	ordersCreated *prometheus.CounterVec
	orderTotals   prometheus.Histogram
}

// New registers the storefront metrics on reg.
func New(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation and result.",
	}, []string{"op", "result"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Order creation attempts by result.",
	}, []string{"result"})
	orderTotals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_total_amount",
		Help:    "Total amount of created orders in currency units.",
		Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
	})
	reg.MustRegister(httpDuration, cartMutations, ordersCreated, orderTotals)
	return &Storefront{
		httpDuration:  httpDuration,
		cartMutations: cartMutations,
		ordersCreated: ordersCreated,
		orderTotals:   orderTotals,
	}
}

func (s *Storefront) ObserveRequest(method, route string, status int, d time.Duration) {
	if s == nil || s.httpDuration == nil {
		return
	}
	s.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func (s *Storefront) CartMutation(op string, err error) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op), result(err)).Inc()
}

func (s *Storefront) OrderCreated(total int64, err error) {
	if s == nil || s.ordersCreated == nil {
		return
	}
	s.ordersCreated.WithLabelValues(result(err)).Inc()
	if err == nil {
		s.orderTotals.Observe(float64(total))
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
