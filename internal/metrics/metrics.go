package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type MetricsService interface {
	GetRegistry() *prometheus.Registry
	// Ledger RPC method metrics
	IncRPCMethodCalls(network, method string)
	ObserveRPCMethodDuration(network, method string, duration float64)
	IncRPCMethodErrors(network, method, errorType string)
	// Outbound compute-unit budget
	ObserveRPCBudgetWait(network string, duration float64)
	IncRPCBudgetRejected(network string)
	// HTTP request metrics
	IncNumRequests(endpoint, method string, statusCode int)
	ObserveRequestDuration(endpoint, method string, duration float64)
	// Completion service metrics
	ObserveCompletionDuration(model string, duration float64)
	IncCompletionErrors(model, errorType string)
	// Advisory metrics
	IncAdvisories(intent string)
	ObserveAnalysisDuration(analysis string, duration float64)
	// DB metrics
	ObserveDBQueryDuration(queryType, table string, duration float64)
	IncDBQueryError(queryType, table, errorType string)
}

// metricsService handles all metrics for the advisor
type metricsService struct {
	registry *prometheus.Registry

	// RPC Method Metrics
	rpcMethodCallsTotal  *prometheus.CounterVec
	rpcMethodDuration    *prometheus.SummaryVec
	rpcMethodErrorsTotal *prometheus.CounterVec

	// RPC Budget Metrics
	rpcBudgetWait     *prometheus.HistogramVec
	rpcBudgetRejected *prometheus.CounterVec

	// HTTP Request Metrics
	numRequestsTotal *prometheus.CounterVec
	requestsDuration *prometheus.SummaryVec

	// Completion Metrics
	completionDuration *prometheus.HistogramVec
	completionErrors   *prometheus.CounterVec

	// Advisory Metrics
	advisoriesTotal  *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec

	// DB Query Metrics
	dbQueryDuration *prometheus.SummaryVec
	dbQueryErrors   *prometheus.CounterVec
}

func NewMetricsService() MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
	}

	m.rpcMethodCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_method_calls_total",
			Help: "Total number of ledger RPC method calls",
		},
		[]string{"network", "method"},
	)
	m.rpcMethodDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "rpc_method_duration_seconds",
			Help:       "Duration of ledger RPC method calls",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"network", "method"},
	)
	m.rpcMethodErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_method_errors_total",
			Help: "Total number of failed ledger RPC method calls",
		},
		[]string{"network", "method", "error_type"},
	)

	m.rpcBudgetWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_budget_wait_seconds",
			Help:    "Time spent waiting for outbound compute-unit budget",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"network"},
	)
	m.rpcBudgetRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_budget_rejected_total",
			Help: "Ledger calls rejected after waiting too long for budget",
		},
		[]string{"network"},
	)

	m.numRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.requestsDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "http_request_duration_seconds",
			Help:       "Duration of HTTP requests",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"endpoint", "method"},
	)

	m.completionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_duration_seconds",
			Help:    "Duration of text-completion calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"model"},
	)
	m.completionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_errors_total",
			Help: "Total number of failed text-completion calls",
		},
		[]string{"model", "error_type"},
	)

	m.advisoriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisories_total",
			Help: "Completed advisories by chat intent",
		},
		[]string{"intent"},
	)
	m.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Duration of individual analyses",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"analysis"},
	)

	m.dbQueryDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "db_query_duration_seconds",
			Help:       "Duration of database queries",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"query_type", "table"},
	)
	m.dbQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		},
		[]string{"query_type", "table", "error_type"},
	)

	m.registerMetrics()
	return m
}

func (m *metricsService) registerMetrics() {
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rpcMethodCallsTotal,
		m.rpcMethodDuration,
		m.rpcMethodErrorsTotal,
		m.rpcBudgetWait,
		m.rpcBudgetRejected,
		m.numRequestsTotal,
		m.requestsDuration,
		m.completionDuration,
		m.completionErrors,
		m.advisoriesTotal,
		m.analysisDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
	)
}

func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metricsService) IncRPCMethodCalls(network, method string) {
	m.rpcMethodCallsTotal.WithLabelValues(network, method).Inc()
}

func (m *metricsService) ObserveRPCMethodDuration(network, method string, duration float64) {
	m.rpcMethodDuration.WithLabelValues(network, method).Observe(duration)
}

func (m *metricsService) IncRPCMethodErrors(network, method, errorType string) {
	m.rpcMethodErrorsTotal.WithLabelValues(network, method, errorType).Inc()
}

func (m *metricsService) ObserveRPCBudgetWait(network string, duration float64) {
	m.rpcBudgetWait.WithLabelValues(network).Observe(duration)
}

func (m *metricsService) IncRPCBudgetRejected(network string) {
	m.rpcBudgetRejected.WithLabelValues(network).Inc()
}

func (m *metricsService) IncNumRequests(endpoint, method string, statusCode int) {
	m.numRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

func (m *metricsService) ObserveRequestDuration(endpoint, method string, duration float64) {
	m.requestsDuration.WithLabelValues(endpoint, method).Observe(duration)
}

func (m *metricsService) ObserveCompletionDuration(model string, duration float64) {
	m.completionDuration.WithLabelValues(model).Observe(duration)
}

func (m *metricsService) IncCompletionErrors(model, errorType string) {
	m.completionErrors.WithLabelValues(model, errorType).Inc()
}

func (m *metricsService) IncAdvisories(intent string) {
	m.advisoriesTotal.WithLabelValues(intent).Inc()
}

func (m *metricsService) ObserveAnalysisDuration(analysis string, duration float64) {
	m.analysisDuration.WithLabelValues(analysis).Observe(duration)
}

func (m *metricsService) ObserveDBQueryDuration(queryType, table string, duration float64) {
	m.dbQueryDuration.WithLabelValues(queryType, table).Observe(duration)
}

func (m *metricsService) IncDBQueryError(queryType, table, errorType string) {
	m.dbQueryErrors.WithLabelValues(queryType, table, errorType).Inc()
}
