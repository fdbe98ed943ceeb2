// Package aliveness implements the liveness responder: a TCP server that
// answers any bytes from any client with the literal "YES". Stateless and
// unauthenticated, pinned for interoperability with external probes.
package aliveness

import (
	"net"

	"github.com/sirupsen/logrus"
)

// Server is an optional, off-by-default TCP liveness responder.
type Server struct {
	ln  net.Listener
	log logrus.FieldLogger
}

// Listen binds addr and starts serving. Callers that don't enable the
// aliveness check (per cfg.Config.AlivenessCheck.Enabled) never construct one.
func Listen(addr string, log logrus.FieldLogger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, log: log}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		return
	}
	if _, err := conn.Write([]byte("YES")); err != nil && s.log != nil {
		s.log.WithError(err).Debug("aliveness write failed")
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.ln.Close()
}
