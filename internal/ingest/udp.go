// Package ingest implements the UDP and TCP ingest endpoints: both run
// concurrently with the aggregator and share one active Buffer by appending
// through the aggregator's Add method. Neither blocks on folding or sink I/O.
package ingest

import (
	"errors"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/NinthDecimal/statsite/internal/sample"
	"github.com/NinthDecimal/statsite/internal/selfstats"
)

// Adder is the ingest-side view of the aggregator: append one Sample to the
// currently active Buffer.
type Adder interface {
	Add(sample.Sample)
}

// udpBufferSteps are the receive-buffer sizes tried in order, largest first;
// the first one the OS accepts is retained.
var udpBufferSteps = []int{4 << 20, 2 << 20, 1 << 20, 512 << 10}

const defaultUDPReadSize = 32 * 1024

// UDP is the datagram ingest endpoint.
type UDP struct {
	conn  *net.UDPConn
	adder Adder
	log   logrus.FieldLogger
	stats *selfstats.Registry
}

// ListenUDP binds addr, raises the socket's receive buffer toward 4MiB
// (stepping down through 2MiB/1MiB/512KiB on failure), and starts serving.
func ListenUDP(addr string, adder Adder, log logrus.FieldLogger, stats *selfstats.Registry) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	for _, size := range udpBufferSteps {
		if err := conn.SetReadBuffer(size); err == nil {
			break
		}
	}

	u := &UDP{conn: conn, adder: adder, log: log, stats: stats}
	go u.serve()
	return u, nil
}

func (u *UDP) serve() {
	buf := make([]byte, defaultUDPReadSize)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			// A closed listener (shutdown) ends the loop; any other
			// per-datagram read failure is transient and the endpoint
			// keeps serving.
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if u.stats != nil {
				u.stats.Counter("ingest.udp.read_errors").Inc(1)
			}
			continue
		}
		u.ingest(buf[:n])
	}
}

func (u *UDP) ingest(payload []byte) {
	samples := sample.Batch(payload, func(pe *sample.ParseError) {
		if u.stats != nil {
			u.stats.Counter("ingest.parse_errors").Inc(1)
		}
		if u.log != nil {
			u.log.WithError(pe).Debug("dropping malformed line")
		}
	})
	for _, s := range samples {
		u.adder.Add(s)
	}
	if u.stats != nil {
		u.stats.Counter("ingest.udp.datagrams").Inc(1)
	}
}

// Close stops accepting new datagrams.
func (u *UDP) Close() error {
	return u.conn.Close()
}
