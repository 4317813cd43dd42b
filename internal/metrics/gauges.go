package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// StateSources exposes in-memory state sizes sampled at scrape time. Nil sources are skipped.
type StateSources struct {
	DroppedEvents     func() uint64
	PendingEvents     func() int
	TrackedIdentities func() int
	CsrfTokens        func() int
	RetainedKeys      func() int
}

// RegisterStateGauges registers observable instruments for the non-nil sources.
// The returned registration is unregistered on shutdown.
func RegisterStateGauges(
	meterProvider metric.MeterProvider,
	namespace string,
	sources StateSources,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	var observables []metric.Observable
	var callbacks []func(metric.Observer)

	if sources.DroppedEvents != nil {
		dropped, err := meter.Int64ObservableCounter(
			fmt.Sprintf("%s_security_events_dropped_total", namespace),
			metric.WithDescription("Security events dropped because the dispatcher queue was full"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create dropped events counter: %w", err)
		}
		observables = append(observables, dropped)
		callbacks = append(callbacks, func(o metric.Observer) {
			o.ObserveInt64(dropped, int64(sources.DroppedEvents()))
		})
	}

	gauges := []struct {
		name        string
		description string
		unit        string
		source      func() int
	}{
		{"security_events_pending", "Security events waiting in the dispatcher queue", "{event}", sources.PendingEvents},
		{"rate_limit_tracked_identities", "Identities with a live rate limit record", "{identity}", sources.TrackedIdentities},
		{"csrf_tokens", "Live CSRF tokens", "{token}", sources.CsrfTokens},
		{"encryption_keys_retained", "Encryption keys retained in the key ring", "{key}", sources.RetainedKeys},
	}

	for _, g := range gauges {
		if g.source == nil {
			continue
		}

		gauge, err := meter.Int64ObservableGauge(
			fmt.Sprintf("%s_%s", namespace, g.name),
			metric.WithDescription(g.description),
			metric.WithUnit(g.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s gauge: %w", g.name, err)
		}

		source := g.source
		observables = append(observables, gauge)
		callbacks = append(callbacks, func(o metric.Observer) {
			o.ObserveInt64(gauge, int64(source()))
		})
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, callback := range callbacks {
			callback(o)
		}
		return nil
	}, observables...)
}
