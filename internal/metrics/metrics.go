package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_plays_total",
			Help: "Settled plays by kind (paid, free) and outcome (win, no_win)",
		},
		[]string{"kind", "outcome"},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_payouts_total",
			Help: "Prize payouts by tier",
		},
		[]string{"tier"},
	)

	PayoutLamportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_payout_lamports_total",
			Help: "Lamports paid out of the prize pool",
		},
	)

	ChargedLamportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_charged_lamports_total",
			Help: "Lamports charged to players for paid plays",
		},
	)

	DepositedLamportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_deposited_lamports_total",
			Help: "Lamports deposited into the prize pool by the operator",
		},
	)

	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_call_failures_total",
			Help: "Aborted calls by operation and error kind",
		},
		[]string{"operation", "kind"},
	)
)
