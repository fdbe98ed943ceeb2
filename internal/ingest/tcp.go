package ingest

import (
	"bufio"
	"errors"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/NinthDecimal/statsite/internal/sample"
	"github.com/NinthDecimal/statsite/internal/selfstats"
)

// maxTCPLine is the oversize-line cutoff: a longer line is discarded but the
// connection survives, maximizing availability per spec.md §4.3/§9.
const maxTCPLine = 4096

// TCP is the line-stream ingest endpoint. Each connection is independent;
// closing one never affects others.
type TCP struct {
	ln    net.Listener
	adder Adder
	log   logrus.FieldLogger
	stats *selfstats.Registry
}

// ListenTCP binds addr and starts accepting connections.
func ListenTCP(addr string, adder Adder, log logrus.FieldLogger, stats *selfstats.Registry) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &TCP{ln: ln, adder: adder, log: log, stats: stats}
	go s.serve()
	return s, nil
}

func (s *TCP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go s.handle(conn)
	}
}

func (s *TCP) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReaderSize(conn, maxTCPLine)
	oversize := false
	for {
		// ReadSlice, unlike ReadString, reports ErrBufferFull as soon as a
		// line exceeds the buffer instead of silently growing across
		// reads, which is what lets us bound a single line's size.
		fragment, err := reader.ReadSlice('\n')
		switch {
		case err == nil:
			if !oversize {
				s.ingestLine(fragment)
			}
			oversize = false
		case errors.Is(err, bufio.ErrBufferFull):
			if !oversize && s.stats != nil {
				s.stats.Counter("ingest.tcp.oversize_lines").Inc(1)
			}
			oversize = true
			continue
		default:
			if len(fragment) > 0 && !oversize {
				s.ingestLine(fragment)
			}
			return
		}
	}
}

func (s *TCP) ingestLine(line []byte) {
	trimmed := trimNewline(line)
	if len(trimmed) == 0 {
		return
	}
	samp, err := sample.Parse(string(trimmed))
	if err != nil {
		if s.stats != nil {
			s.stats.Counter("ingest.parse_errors").Inc(1)
		}
		if s.log != nil {
			s.log.WithError(err).Debug("dropping malformed line")
		}
		return
	}
	s.adder.Add(samp)
	if s.stats != nil {
		s.stats.Counter("ingest.tcp.lines").Inc(1)
	}
}

func trimNewline(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}

// Close stops accepting new connections; connections already open keep
// running until their peer disconnects.
func (s *TCP) Close() error {
	return s.ln.Close()
}
