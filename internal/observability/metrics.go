// Package observability exposes the Prometheus counters the checkout saga and
// the inventory ledger report into. Compensation problems are surfaced here
// and in the log, never through the caller-facing error.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "checkout",
		Name:      "orders_placed_total",
		Help:      "Orders successfully created by checkout.",
	})

	// CompensationFailures counts releases of reserved stock that failed
	// during saga rollback or order cancellation, labeled by stage.
	CompensationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "checkout",
		Name:      "compensation_failures_total",
		Help:      "Reserved-stock releases that failed during compensation.",
	}, []string{"stage"})

	// ConsumeNoops counts post-payment consumption attempts that were skipped,
	// labeled by reason. Each one needs operator review.
	ConsumeNoops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "inventory",
		Name:      "consume_noops_total",
		Help:      "Post-payment stock consumptions skipped as no-ops.",
	}, []string{"reason"})
)
