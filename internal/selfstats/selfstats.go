// Package selfstats exposes the process's own ingest/fold/sink counters,
// the same self-instrumentation idiom carbon-relay-ng's aggregator uses via
// its "stats" package wrapping github.com/Dieterbe/go-metrics.
package selfstats

import metrics "github.com/Dieterbe/go-metrics"

// Registry is a small facade over a go-metrics registry: name-addressed
// counters and gauges, lazily created on first use.
type Registry struct {
	reg metrics.Registry
}

func New() *Registry {
	return &Registry{reg: metrics.NewRegistry()}
}

// Counter returns the named counter, registering it on first use.
func (r *Registry) Counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, r.reg)
}

// Gauge returns the named gauge, registering it on first use.
func (r *Registry) Gauge(name string) metrics.Gauge {
	return metrics.GetOrRegisterGauge(name, r.reg)
}

// Snapshot returns a point-in-time copy of every registered counter and
// gauge's value, suitable for JSON rendering by the admin endpoint.
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	r.reg.Each(func(name string, v interface{}) {
		switch m := v.(type) {
		case metrics.Counter:
			out[name] = m.Count()
		case metrics.Gauge:
			out[name] = m.Value()
		}
	})
	return out
}
