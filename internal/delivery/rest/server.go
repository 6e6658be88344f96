// Path: internal/delivery/rest/server.go
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server is the HTTP server hosting the JSON API and the UI.
type Server struct {
	httpServer *http.Server
}

// NewServer creates and configures the HTTP server around a pre-built
// handler (the shared mux carrying both API and UI routes).
func NewServer(port string, handler http.Handler, log logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      &logHandler{log: log, next: handler},
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 35 * time.Second, // upstream calls can take the full client timeout
			IdleTimeout:  15 * time.Second,
		},
	}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// logHandler logs one structured line per request.
type logHandler struct {
	log  logrus.FieldLogger
	next http.Handler
}

func (lh *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	lh.next.ServeHTTP(rec, r)
	lh.log.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
	}).Info("request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}
