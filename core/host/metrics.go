package host

import "time"

// Metrics receives per-call observations. observability.HostMetrics satisfies it.
type Metrics interface {
	ObserveCall(contract, entrypoint, outcome string, duration time.Duration)
	ObserveAbort(contract, entrypoint, kind string)
	ObserveEvent(contract, eventType string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCall(string, string, string, time.Duration) {}
func (noopMetrics) ObserveAbort(string, string, string)               {}
func (noopMetrics) ObserveEvent(string, string)                       {}
