// Package metrics registers the Prometheus counters for money movement.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Recharges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lancepay_wallet_recharges_total",
		Help: "Completed wallet recharges.",
	})

	Withdrawals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lancepay_wallet_withdrawals_total",
		Help: "Completed wallet withdrawals.",
	})

	Releases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lancepay_escrow_releases_total",
		Help: "Milestone payments released.",
	})

	ReleaseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lancepay_escrow_release_failures_total",
		Help: "Failed release attempts by reason.",
	}, []string{"reason"})
)
