// Package metric implements the per-kind fold rules: how a group of Samples
// sharing (kind, key) becomes a flat list of output triples.
package metric

import "github.com/NinthDecimal/statsite/internal/sample"

// Triple is one line of folded output: a name, a value, and the timestamp
// captured once at fold start.
type Triple struct {
	Name      string
	Value     sample.Number
	Timestamp int64
}

// OutputName composes <prefix>.<namespace>.<key>[.<suffix>].
func OutputName(prefix string, k sample.Kind, key string, suffix string) string {
	name := prefix + "." + k.Namespace() + "." + key
	if suffix != "" {
		name += "." + suffix
	}
	return name
}
