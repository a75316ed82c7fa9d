package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_transactions_created_total",
		Help: "Number of donation transactions created.",
	})

	TransactionsApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_transactions_approved_total",
		Help: "Number of donation transactions approved and committed.",
	})

	TransactionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_transactions_rejected_total",
		Help: "Number of donation transactions rejected.",
	})

	ApprovalConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_approval_conflicts_total",
		Help: "Number of approvals that failed, including stale allocations.",
	})
)
