// Package aggregator implements the double-buffered interval aggregator:
// it accumulates Samples until a fixed-period tick, then swaps buffers and
// hands the frozen buffer to a folder running concurrently with ingest.
package aggregator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NinthDecimal/statsite/internal/buffer"
	"github.com/NinthDecimal/statsite/internal/metric"
	"github.com/NinthDecimal/statsite/internal/sample"
	"github.com/NinthDecimal/statsite/internal/selfstats"
)

// Sink is the downstream collaborator a fold result is handed to. Flush must
// never block ingest for long and must never panic.
type Sink interface {
	Flush(triples []metric.Triple)
}

// Aggregator owns the single active Buffer and the tick-driven swap/fold
// cycle. Build with New; Add is safe for concurrent callers, matching the
// single shared mutable object the ingest endpoints publish into.
type Aggregator struct {
	active atomic.Pointer[buffer.Buffer]

	tick     <-chan time.Time
	shutdown chan struct{}
	wg       sync.WaitGroup

	nowFunc func() time.Time
	opts    metric.FoldOptions
	sink    Sink
	log     logrus.FieldLogger
	stats   *selfstats.Registry

	foldMu     sync.Mutex
	folding    bool
	pending    *buffer.Buffer
	hasPending bool
}

// New starts the tick loop and returns a ready Aggregator. tick is typically
// clock.AlignedTick(flushInterval); tests inject their own channel.
func New(tick <-chan time.Time, sink Sink, opts metric.FoldOptions, log logrus.FieldLogger, stats *selfstats.Registry) *Aggregator {
	a := &Aggregator{
		tick:     tick,
		shutdown: make(chan struct{}),
		nowFunc:  time.Now,
		opts:     opts,
		sink:     sink,
		log:      log,
		stats:    stats,
	}
	a.active.Store(buffer.New())
	a.wg.Add(1)
	go a.run()
	return a
}

// Add appends one Sample to the currently active Buffer. Safe to call from
// any number of ingest goroutines concurrently with a tick-triggered swap:
// a sample accepted before the swap instant lands in the frozen buffer, one
// accepted after lands in the new buffer, never both, never neither.
func (a *Aggregator) Add(s sample.Sample) {
	a.active.Load().Append(s)
	if a.stats != nil {
		a.stats.Counter("aggregator.samples_received").Inc(1)
	}
}

func (a *Aggregator) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.tick:
			a.swapAndFold()
		case <-a.shutdown:
			// Data loss here is explicit and accepted: see spec non-goals.
			dropped := a.active.Load().Len()
			if dropped > 0 && a.log != nil {
				a.log.WithField("dropped_samples", dropped).Warn("aggregator shutting down, abandoning active buffer")
			}
			return
		}
	}
}

// swapAndFold atomically replaces the active Buffer with a fresh one and
// schedules the old one for folding. Scheduling is best-effort: if a fold is
// still running, the new buffer waits in a single-slot queue; a second
// buffer arriving while one is already queued abandons the older of the two.
func (a *Aggregator) swapAndFold() {
	old := a.active.Swap(buffer.New())

	a.foldMu.Lock()
	if a.folding {
		if a.hasPending && a.log != nil {
			a.log.Warn("fold still pending when next tick fired, abandoning previously queued buffer")
			if a.stats != nil {
				a.stats.Counter("aggregator.folds_abandoned").Inc(1)
			}
		}
		a.pending = old
		a.hasPending = true
		a.foldMu.Unlock()
		return
	}
	a.folding = true
	a.foldMu.Unlock()

	a.wg.Add(1)
	go a.runFold(old)
}

func (a *Aggregator) runFold(buf *buffer.Buffer) {
	defer a.wg.Done()
	a.doFold(buf)

	a.foldMu.Lock()
	if a.hasPending {
		next := a.pending
		a.pending = nil
		a.hasPending = false
		a.foldMu.Unlock()
		a.wg.Add(1)
		go a.runFold(next)
		return
	}
	a.folding = false
	a.foldMu.Unlock()
}

// doFold runs one fold-and-forward cycle. A panic inside folding is a
// FoldError: it is logged and the buffer is dropped, never propagated.
func (a *Aggregator) doFold(buf *buffer.Buffer) {
	defer func() {
		if r := recover(); r != nil && a.log != nil {
			a.log.WithField("panic", r).Error("fold failed, dropping buffer")
		}
	}()

	samples := buf.Samples()
	now := a.nowFunc().Unix()
	triples := metric.Fold(samples, now, a.opts)
	if a.stats != nil {
		a.stats.Counter("aggregator.samples_folded").Inc(int64(len(samples)))
		a.stats.Counter("aggregator.triples_emitted").Inc(int64(len(triples)))
	}
	a.sink.Flush(triples)
}

// Shutdown cancels the tick loop and abandons the current active Buffer.
// Any fold already in flight runs to completion.
func (a *Aggregator) Shutdown() {
	close(a.shutdown)
	a.wg.Wait()
}
