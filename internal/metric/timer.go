package metric

import (
	"fmt"
	"math"
	"sort"

	"github.com/NinthDecimal/statsite/internal/sample"
)

// TimerAccumulator collects every sample value per key, unordered, then
// sorts (stable, so equal values tie-break by insertion order) at Emit time.
type TimerAccumulator struct {
	values map[string][]float64
	order  []string
}

func NewTimerAccumulator() *TimerAccumulator {
	return &TimerAccumulator{values: make(map[string][]float64)}
}

func (t *TimerAccumulator) Append(s sample.Sample) {
	if _, ok := t.values[s.Key]; !ok {
		t.order = append(t.order, s.Key)
	}
	t.values[s.Key] = append(t.values[s.Key], s.Value.Float64())
}

// Emit produces, per key, the base summary suffixes plus the percentile-P
// slice suffixes described in spec.md §4.2.
func (t *TimerAccumulator) Emit(now int64, prefix string, percentile int) []Triple {
	var out []Triple
	for _, key := range t.order {
		values := append([]float64(nil), t.values[key]...)
		sort.Stable(sort.Float64Slice(values))
		out = append(out, foldTimerKey(prefix, key, now, percentile, values)...)
	}
	return out
}

func foldTimerKey(prefix, key string, now int64, percentile int, sorted []float64) []Triple {
	n := len(sorted)
	sum, mean, stdev := baseStats(sorted)
	lower, upper := sorted[0], sorted[n-1]

	triples := []Triple{
		t(prefix, key, "sum", sum, now),
		t(prefix, key, "mean", mean, now),
		t(prefix, key, "lower", lower, now),
		t(prefix, key, "upper", upper, now),
		{Name: OutputName(prefix, sample.Timer, key, "count"), Value: sample.IntNumber(int64(n)), Timestamp: now},
		t(prefix, key, "stdev", stdev, now),
	}

	var slice []float64
	lowerIdx, upperIdx := 0, n-1
	if n == 1 {
		slice = sorted
	} else {
		inner := int(math.Floor(float64(n) * float64(percentile) / 100))
		lowerIdx = (n - inner) / 2
		upperIdx = lowerIdx + inner
		hi := upperIdx
		if hi > n {
			hi = n
		}
		slice = sorted[lowerIdx:hi]
	}

	sumP, _, stdevP := baseStats(slice)
	meanP := 0.0
	if len(slice) > 0 {
		meanP = sumP / float64(len(slice))
	} else {
		meanP = sumP
	}
	lowerP := sorted[clampIndex(lowerIdx, n)]
	upperP := sorted[clampIndex(upperIdx, n)]

	suffix := fmt.Sprintf("%d", percentile)
	triples = append(triples,
		t(prefix, key, "sum_"+suffix, sumP, now),
		t(prefix, key, "mean_"+suffix, meanP, now),
		t(prefix, key, "lower_"+suffix, lowerP, now),
		t(prefix, key, "upper_"+suffix, upperP, now),
		Triple{Name: OutputName(prefix, sample.Timer, key, "count_"+suffix), Value: sample.IntNumber(int64(len(slice))), Timestamp: now},
		t(prefix, key, "stdev_"+suffix, stdevP, now),
	)
	return triples
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func baseStats(values []float64) (sum, mean, stdev float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)
	if n <= 1 {
		return sum, mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stdev = math.Sqrt(sq / float64(n-1))
	return sum, mean, stdev
}

func t(prefix, key, suffix string, value float64, now int64) Triple {
	return Triple{
		Name:      OutputName(prefix, sample.Timer, key, suffix),
		Value:     sample.FloatNumber(value),
		Timestamp: now,
	}
}
