// Package admin exposes the process's self-stats over HTTP, the ambient
// observability surface alongside the liveness responder. It is optional
// and separate from the core ingest-to-flush pipeline.
package admin

import (
	"encoding/json"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/NinthDecimal/statsite/internal/selfstats"
)

// Server serves /debug/vars with a JSON snapshot of every self-stats
// counter and gauge.
type Server struct {
	ln  net.Listener
	srv *http.Server
}

// Listen binds addr and starts serving in the background. accessLog
// receives one combined-log-format line per request; a nil accessLog
// disables access logging.
func Listen(addr string, stats *selfstats.Registry, accessLog io.Writer, log logrus.FieldLogger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.HandleFunc("/debug/vars", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats.Snapshot()); err != nil && log != nil {
			log.WithError(err).Warn("admin: failed to encode self-stats snapshot")
		}
	}).Methods(http.MethodGet)

	var handler http.Handler = router
	if accessLog != nil {
		handler = handlers.CombinedLoggingHandler(accessLog, router)
	}

	httpSrv := &http.Server{Handler: handler}
	s := &Server{ln: ln, srv: httpSrv}
	go func() {
		_ = httpSrv.Serve(ln)
	}()
	return s, nil
}

// Close stops the HTTP server.
func (s *Server) Close() error {
	return s.srv.Close()
}
