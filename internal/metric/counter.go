package metric

import "github.com/NinthDecimal/statsite/internal/sample"

// CounterAccumulator sums sample.Value * sample.Rate() per key (an absent
// rate counts as 1), so a value of 2 at rate 0.5 contributes 1.
type CounterAccumulator struct {
	sums map[string]float64
}

func NewCounterAccumulator() *CounterAccumulator {
	return &CounterAccumulator{sums: make(map[string]float64)}
}

func (c *CounterAccumulator) Append(s sample.Sample) {
	c.sums[s.Key] += s.Value.Float64() * s.Rate()
}

func (c *CounterAccumulator) Emit(now int64, prefix string) []Triple {
	out := make([]Triple, 0, len(c.sums))
	for key, sum := range c.sums {
		out = append(out, Triple{
			Name:      OutputName(prefix, sample.Counter, key, ""),
			Value:     sample.FloatNumber(sum),
			Timestamp: now,
		})
	}
	return out
}
