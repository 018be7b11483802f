package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_billing_sweeps_total",
		Help: "Number of billing sweep passes executed.",
	})
	LessonsCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_lessons_charged_total",
		Help: "Number of lessons debited from student balances.",
	})
	AgorotCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_agorot_charged_total",
		Help: "Total amount debited, in agorot.",
	})
	ConflictsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_schedule_conflicts_total",
		Help: "Number of schedule writes rejected for overlapping an existing entry.",
	})
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutor_reminders_sent_total",
		Help: "Number of lesson reminders delivered.",
	})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
