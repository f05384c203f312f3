// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/utils"
)

// StatsFunc supplies a point-in-time stats snapshot for /stats.
type StatsFunc func() map[string]interface{}

// Server serves the monitoring endpoints.
type Server struct {
	httpServer *http.Server
	log        utils.Logger
}

// NewServer builds the monitoring HTTP server. stats may be nil, in which
// case /stats returns an empty object.
func NewServer(listen string, metrics *Metrics, stats StatsFunc, log utils.Logger) *Server {
	if log == nil {
		log = utils.NewLogger()
	}

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats", statsHandler(stats)).Methods(http.MethodGet)

	return &Server{
		httpServer: &http.Server{
			Addr:         listen,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves until Shutdown. It returns http.ErrServerClosed on a clean
// shutdown, like the underlying server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("monitoring server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func statsHandler(stats StatsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := map[string]interface{}{}
		if stats != nil {
			snapshot = stats()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snapshot)
	}
}
