// Package server exposes comparisons over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"CoinCompare/internal/logging"
	"CoinCompare/internal/metrics"
	"CoinCompare/internal/model"

	"github.com/gorilla/mux"
)

// Comparer produces a comparison for a coin. *cache.Comparer satisfies it.
type Comparer interface {
	Compare(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison
}

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	MetricsEnabled bool
	MetricsPath    string
}

type Server struct {
	comparer Comparer
	coins    model.CoinRegistry
	logger   *logging.Logger
	router   *mux.Router
	http     *http.Server
}

func New(comparer Comparer, coins model.CoinRegistry, opts Options, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		comparer: comparer,
		coins:    coins,
		logger:   logger,
		router:   mux.NewRouter(),
	}

	s.router.Use(requestMiddleware(logger))
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/coins", s.handleListCoins).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/compare/{coin}", s.handleCompare).Methods(http.MethodGet)
	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, metrics.Handler()).Methods(http.MethodGet)
	}
	// mux middleware only wraps matched routes
	s.router.NotFoundHandler = requestMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, WrapError(ErrNotFound, "not found", http.StatusNotFound))
	}))
	s.router.MethodNotAllowedHandler = requestMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, WrapError(ErrInvalidInput, "method not allowed", http.StatusMethodNotAllowed))
	}))

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		// both upstream calls may take the full client timeout
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
