package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type and severity.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver creates a PrometheusObserver and registers its
// collector with reg. A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "react",
			Subsystem: "kernel",
			Name:      "events_total",
			Help:      "Observability events emitted, by event type and severity.",
		},
		[]string{"type", "level"},
	)
	if err := reg.Register(events); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		events = existing
	}

	return &PrometheusObserver{events: events}, nil
}

func (o *PrometheusObserver) OnEvent(_ context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

// Counter exposes the underlying collector.
func (o *PrometheusObserver) Counter() *prometheus.CounterVec {
	return o.events
}
