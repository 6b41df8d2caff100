// Package metrics defines the instrumentation surface of the payment
// engine: negotiation outcome counters and per-step latencies.
package metrics

import "time"

// Recorder receives negotiation events. Implementations must be safe for
// concurrent use; independent negotiations may run in parallel.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Noop discards all measurements. It is the default when no recorder is
// configured.
type Noop struct{}

func (Noop) IncCounter(string, map[string]string)                    {}
func (Noop) ObserveLatency(string, time.Duration, map[string]string) {}
