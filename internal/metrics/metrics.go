package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckinTotal counts check-in attempts by outcome
// (recorded, duplicate, unknown_user, no_course, error).
var CheckinTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "presence",
	Name:      "checkin_total",
	Help:      "Check-in attempts by outcome.",
}, []string{"outcome"})
