// Package sink implements the Graphite plaintext forwarder: a single
// long-lived TCP connection, serialized writes, and bounded reconnect
// retries on I/O failure.
package sink

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"

	"github.com/NinthDecimal/statsite/internal/metric"
	"github.com/NinthDecimal/statsite/internal/selfstats"
)

// Graphite serializes triples to "<name> <value> <timestamp>\n" lines and
// writes them to a persistent TCP connection, retrying a failed write by
// closing and reopening the connection up to Attempts times.
type Graphite struct {
	addr     string
	attempts int
	dial     func(network, addr string) (net.Conn, error)

	mu   sync.Mutex
	conn net.Conn

	log   logrus.FieldLogger
	stats *selfstats.Registry
}

// Config holds the options §6 names for the downstream Graphite sink.
type Config struct {
	Host     string
	Port     int
	Attempts int // must be >= 2
	Timeout  time.Duration
}

func New(cfg Config, log logrus.FieldLogger, stats *selfstats.Registry) *Graphite {
	attempts := cfg.Attempts
	if attempts < 2 {
		attempts = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	return &Graphite{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		attempts: attempts,
		dial:     dialer.Dial,
		log:      log,
		stats:    stats,
	}
}

// newWithDialer is used by tests to inject a fake dialer.
func newWithDialer(addr string, attempts int, dial func(network, addr string) (net.Conn, error), log logrus.FieldLogger, stats *selfstats.Registry) *Graphite {
	return &Graphite{addr: addr, attempts: attempts, dial: dial, log: log, stats: stats}
}

// Flush serializes triples and writes them as one payload, retrying on I/O
// failure up to Attempts times. It never returns an error to the caller: a
// payload that exhausts its retries is logged and dropped, and the next
// Flush call starts from scratch.
func (g *Graphite) Flush(triples []metric.Triple) {
	if len(triples) == 0 {
		return
	}

	var buf strings.Builder
	for _, tr := range triples {
		fmt.Fprintf(&buf, "%s %s %d\n", tr.Name, tr.Value.String(), tr.Timestamp)
	}
	payload := []byte(buf.String())

	g.mu.Lock()
	defer g.mu.Unlock()

	b := &backoff.Backoff{Min: 50 * time.Millisecond, Max: 2 * time.Second, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if err := g.ensureConnLocked(); err != nil {
			lastErr = err
			g.closeLocked()
			time.Sleep(b.Duration())
			continue
		}
		if _, err := g.conn.Write(payload); err != nil {
			lastErr = err
			g.closeLocked()
			if g.stats != nil {
				g.stats.Counter("sink.write_retries").Inc(1)
			}
			time.Sleep(b.Duration())
			continue
		}
		if g.stats != nil {
			g.stats.Counter("sink.triples_sent").Inc(int64(len(triples)))
		}
		return
	}

	if g.stats != nil {
		g.stats.Counter("sink.payloads_dropped").Inc(1)
	}
	if g.log != nil {
		g.log.WithError(lastErr).WithField("triples", len(triples)).Error("graphite sink exhausted retries, dropping payload")
	}
}

func (g *Graphite) ensureConnLocked() error {
	if g.conn != nil {
		return nil
	}
	conn, err := g.dial("tcp", g.addr)
	if err != nil {
		return err
	}
	g.conn = conn
	return nil
}

func (g *Graphite) closeLocked() {
	if g.conn != nil {
		_ = g.conn.Close()
		g.conn = nil
	}
}

// Close releases the underlying connection, if any.
func (g *Graphite) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLocked()
}
