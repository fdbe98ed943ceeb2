package metric

import "github.com/NinthDecimal/statsite/internal/sample"

// FoldOptions carries fold-time configuration that does not vary per sample.
type FoldOptions struct {
	Prefix     string
	Percentile int // inner percentile P for Timer, 1..99
}

// Fold groups samples by (kind, key) and applies each kind's fold rules,
// returning the full triple list for one flush window. now is captured once
// and shared by every triple this call produces (per spec.md's invariant).
func Fold(samples []sample.Sample, now int64, opts FoldOptions) []Triple {
	counters := NewCounterAccumulator()
	timers := NewTimerAccumulator()
	keyvalues := NewKeyValueAccumulator()

	for _, s := range samples {
		switch s.Kind {
		case sample.Counter:
			counters.Append(s)
		case sample.Timer:
			timers.Append(s)
		case sample.KeyValue:
			keyvalues.Append(s, now)
		}
	}

	var out []Triple
	out = append(out, counters.Emit(now, opts.Prefix)...)
	out = append(out, timers.Emit(now, opts.Prefix, opts.Percentile)...)
	out = append(out, keyvalues.Emit(opts.Prefix)...)
	return out
}
