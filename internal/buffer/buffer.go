// Package buffer implements the append-only Sample collection bound to one
// flush window.
package buffer

import (
	"sync"

	"github.com/NinthDecimal/statsite/internal/sample"
)

// Buffer is append-only while active; once frozen it is read exactly once by
// the folder and then released. Append is safe for concurrent callers
// (multiple ingest goroutines share one active Buffer by reference).
type Buffer struct {
	mu      sync.Mutex
	samples []sample.Sample
}

func New() *Buffer {
	return &Buffer{}
}

// Append adds one Sample. Safe to call concurrently with other Appends.
func (b *Buffer) Append(s sample.Sample) {
	b.mu.Lock()
	b.samples = append(b.samples, s)
	b.mu.Unlock()
}

// Samples returns the accumulated Samples. Only the aggregator calls this,
// after the Buffer has been frozen by a swap, so no further Append races
// against it.
func (b *Buffer) Samples() []sample.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.samples
}

// Len reports the number of Samples currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
