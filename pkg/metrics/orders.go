package metrics

import "github.com/prometheus/client_golang/prometheus"

// Order submission outcomes.
const (
	ResultAccepted    = "accepted"
	ResultRateLimited = "rate_limited"
	ResultInvalid     = "invalid"
	ResultDuplicate   = "duplicate"
	ResultFailed      = "failed"
)

// OrderMetrics counts order submissions and cancellations and exposes the
// open order backlog refreshed by the cron worker.
type OrderMetrics struct {
	submitted *prometheus.CounterVec
	cancelled *prometheus.CounterVec
	backlog   *prometheus.GaugeVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	submitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_submitted_total",
		Help:      "Order submissions by outcome.",
	}, []string{"result"})
	cancelled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_cancelled_total",
		Help:      "Customer cancellations by outcome.",
	}, []string{"result"})
	backlog := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "orders_backlog",
		Help:      "Non-archived orders by bucket at the last refresh.",
	}, []string{"bucket"})
	reg.MustRegister(submitted, cancelled, backlog)
	return &OrderMetrics{submitted: submitted, cancelled: cancelled, backlog: backlog}
}

func (o *OrderMetrics) Submitted(result string) {
	if o == nil || o.submitted == nil {
		return
	}
	o.submitted.WithLabelValues(normalizeLabel(result)).Inc()
}

func (o *OrderMetrics) Cancelled(result string) {
	if o == nil || o.cancelled == nil {
		return
	}
	o.cancelled.WithLabelValues(normalizeLabel(result)).Inc()
}

// Backlog buckets.
const (
	BacklogPending             = "pending"
	BacklogNextDelivery        = "next_delivery"
	BacklogNextDeliveryPending = "next_delivery_pending"
)

func (o *OrderMetrics) SetBacklog(bucket string, n int) {
	if o == nil || o.backlog == nil {
		return
	}
	o.backlog.WithLabelValues(normalizeLabel(bucket)).Set(float64(n))
}
