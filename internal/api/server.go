// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portfolio-advisor/internal/adapter"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/models"
	"github.com/portfolio-advisor/internal/service"
	"github.com/portfolio-advisor/internal/types"
)

// Service interfaces for dependency injection and testing

// PortfolioServiceInterface assembles portfolio snapshots
type PortfolioServiceInterface interface {
	GetPortfolio(ctx context.Context, address string, network types.NetworkID) (*types.PortfolioSnapshot, error)
}

// GasServiceInterface summarizes gas spend
type GasServiceInterface interface {
	Summarize(ctx context.Context, address string, network types.NetworkID) (*types.GasSummary, error)
	Report(ctx context.Context, address string, network types.NetworkID) (string, error)
}

// StakingServiceInterface summarizes the staking position
type StakingServiceInterface interface {
	Summarize(ctx context.Context, address string, network types.NetworkID) (*types.StakingSummary, error)
	Report(ctx context.Context, address string, network types.NetworkID) (string, error)
}

// TaxServiceInterface summarizes coin flows for tax purposes
type TaxServiceInterface interface {
	Summarize(ctx context.Context, address string, network types.NetworkID) (*types.TaxSummary, error)
	Report(ctx context.Context, address string, network types.NetworkID) (string, error)
}

// AdvisoryServiceInterface composes advisories and answers chat messages
type AdvisoryServiceInterface interface {
	Advise(ctx context.Context, address string, network types.NetworkID) (*types.Advisory, error)
	Chat(ctx context.Context, in service.ChatInput) (*types.ChatResponse, error)
	History(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error)
}

// MetricsHistoryInterface reads recorded advisory figures
type MetricsHistoryInterface interface {
	LatestSnapshots(ctx context.Context, address string, network types.NetworkID, limit int) ([]*models.PortfolioSnapshot, error)
}

// Services groups the collaborators served over HTTP. MetricsHistory is optional.
type Services struct {
	Portfolio      PortfolioServiceInterface
	Gas            GasServiceInterface
	Staking        StakingServiceInterface
	Tax            TaxServiceInterface
	Advisory       AdvisoryServiceInterface
	MetricsHistory MetricsHistoryInterface
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	services   Services
	metrics    metrics.MetricsService
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	// Networks resolves the network parameter; absent or unknown values take its fallback
	Networks *adapter.NetworkRegistry
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, services Services, ms metrics.MetricsService) *Server {
	if config.Networks == nil {
		config.Networks = adapter.NewNetworkRegistry(nil, types.DefaultNetwork)
	}

	s := &Server{
		router:   mux.NewRouter(),
		services: services,
		metrics:  ms,
		config:   config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// order matters: logging first so every later stage has a request logger
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(MetricsMiddleware(s.metrics))
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins))
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{
			DisableCompression: true,
		})).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()

	// Analysis endpoints
	api.HandleFunc("/sui-portfolio", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/sui-gas", s.handleGas).Methods(http.MethodGet)
	api.HandleFunc("/sui-gas/report", s.handleGasReport).Methods(http.MethodGet)
	api.HandleFunc("/sui-staking", s.handleStaking).Methods(http.MethodGet)
	api.HandleFunc("/sui-staking/report", s.handleStakingReport).Methods(http.MethodGet)
	api.HandleFunc("/sui-tax", s.handleTax).Methods(http.MethodGet)
	api.HandleFunc("/sui-tax/report", s.handleTaxReport).Methods(http.MethodGet)

	// Advisory endpoints
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/advice", s.handleAdvice).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/advice/history", s.handleAdviceHistory).Methods(http.MethodGet)
	api.HandleFunc("/advice/metrics", s.handleAdviceMetrics).Methods(http.MethodGet)
}

// Handler returns the routed handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-advisor",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
