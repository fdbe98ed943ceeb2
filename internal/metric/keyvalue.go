package metric

import "github.com/NinthDecimal/statsite/internal/sample"

type kvPoint struct {
	value sample.Number
	ts    int64
}

// KeyValueAccumulator is not aggregated: every sample in the window flushes,
// each carrying its own effective timestamp. Output is grouped by key, keys
// in order of first appearance, and within a key in ingest order.
type KeyValueAccumulator struct {
	points map[string][]kvPoint
	order  []string
}

func NewKeyValueAccumulator() *KeyValueAccumulator {
	return &KeyValueAccumulator{points: make(map[string][]kvPoint)}
}

func (kv *KeyValueAccumulator) Append(s sample.Sample, now int64) {
	if _, ok := kv.points[s.Key]; !ok {
		kv.order = append(kv.order, s.Key)
	}
	kv.points[s.Key] = append(kv.points[s.Key], kvPoint{value: s.Value, ts: s.Timestamp(now)})
}

func (kv *KeyValueAccumulator) Emit(prefix string) []Triple {
	var out []Triple
	for _, key := range kv.order {
		for _, p := range kv.points[key] {
			out = append(out, Triple{
				Name:      OutputName(prefix, sample.KeyValue, key, ""),
				Value:     p.value,
				Timestamp: p.ts,
			})
		}
	}
	return out
}
