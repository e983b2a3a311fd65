package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/evansbrianrobert/NBAStats/internal/dataset"
)

// Server exposes built pipeline artifacts over a read-only HTTP API.
type Server struct {
	server *http.Server
}

// NewServer wires the routes against the artifact store.
func NewServer(port string, store *dataset.Store, log *logrus.Logger) *Server {
	handler := NewHandler(store, log)

	router := mux.NewRouter()
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	api.HandleFunc("/seasons/{year}/weighted", handler.GetWeightedStats).Methods("GET")
	api.HandleFunc("/training/summary", handler.GetTrainingSummary).Methods("GET")

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start serves until shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
