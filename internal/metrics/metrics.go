// Package metrics exposes the Prometheus instruments shared by the
// services. Registration happens at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LifecycleTransitions counts membership state changes by transition
	// name (registered, payment, marked_overdue, auto_left, marked_left,
	// reactivated).
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seatserve",
		Name:      "lifecycle_transitions_total",
		Help:      "Membership lifecycle transitions applied.",
	}, []string{"transition"})

	// CheckIns counts opened attendance sessions.
	CheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seatserve",
		Name:      "attendance_checkins_total",
		Help:      "Attendance sessions opened.",
	})

	// AlertsDispatched counts dispatch calls by kind and outcome.
	AlertsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seatserve",
		Name:      "alerts_dispatched_total",
		Help:      "Alert dispatches by kind (targeted/broadcast) and result.",
	}, []string{"kind", "result"})

	// PushTokensPruned counts device tokens removed after the push provider
	// classified them as permanently invalid.
	PushTokensPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seatserve",
		Name:      "push_tokens_pruned_total",
		Help:      "Invalid device tokens pruned from member and admin records.",
	})
)
