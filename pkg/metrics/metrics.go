package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Storefront records order, stock, cache and HTTP metrics. A nil *Storefront
// is valid and records nothing.
type Storefront struct {
	transitions  *prometheus.CounterVec
	stockUpdates prometheus.Counter
	lowStock     prometheus.Gauge
	cache        *prometheus.CounterVec
	requests     *prometheus.HistogramVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Committed order status transitions.",
	}, []string{"from", "to"})
	stockUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_updates_total",
		Help: "Stock quantity overwrites from the back office.",
	})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stock_low_levels",
		Help: "Stock rows at or under their low stock threshold.",
	})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "read_cache_requests_total",
		Help: "Read cache lookups by result.",
	}, []string{"cache", "result"})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	reg.MustRegister(transitions, stockUpdates, lowStock, cache, requests)
	return &Storefront{
		transitions:  transitions,
		stockUpdates: stockUpdates,
		lowStock:     lowStock,
		cache:        cache,
		requests:     requests,
	}
}

// OrderTransitioned counts a committed status change.
func (m *Storefront) OrderTransitioned(from, to enums.OrderStatus) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(string(from)), normalizeLabel(string(to))).Inc()
}

func (m *Storefront) StockUpdated() {
	if m == nil || m.stockUpdates == nil {
		return
	}
	m.stockUpdates.Inc()
}

// SetLowStock publishes the current number of low stock rows.
func (m *Storefront) SetLowStock(n int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

func (m *Storefront) CacheHit(cache string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(cache), "hit").Inc()
}

func (m *Storefront) CacheMiss(cache string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(cache), "miss").Inc()
}

// ObserveRequest records one served request. route is the chi route pattern,
// never the raw path.
func (m *Storefront) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
