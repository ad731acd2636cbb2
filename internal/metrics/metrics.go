// Package metrics holds Prometheus instruments that are used across the
// dashboard.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FormSessionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "form_sessions_open",
			Help: "Number of form sessions currently held in memory.",
		})

	FormSubmitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submit_total",
			Help: "Form submissions by outcome (ok, invalid, failed, busy).",
		}, []string{"outcome"})

	FieldValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_field_validation_failures_total",
			Help: "Field-level validation failures by field.",
		}, []string{"field"})

	DraftSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "form_draft_saved_total",
			Help: "Cumulative number of drafts written to the draft store.",
		})

	DraftRestoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "form_draft_restored_total",
			Help: "Cumulative number of drafts restored into a form.",
		})

	DraftDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "form_draft_discarded_total",
			Help: "Cumulative number of drafts removed after a successful submit.",
		})

	DraftErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "form_draft_errors_total",
			Help: "Cumulative number of draft store errors.",
		})
)

func init() {
	prometheus.MustRegister(
		FormSessionsOpen,
		FormSubmitTotal,
		FieldValidationFailuresTotal,
		DraftSavedTotal,
		DraftRestoredTotal,
		DraftDiscardedTotal,
		DraftErrorsTotal,
	)
}
