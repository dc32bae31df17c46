package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-advisor/internal/adapter"
	apperrors "github.com/portfolio-advisor/internal/errors"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/models"
	"github.com/portfolio-advisor/internal/service"
	"github.com/portfolio-advisor/internal/types"
)

const testAddress = "0xa11ce"

// Mock services for testing

type mockPortfolioService struct {
	gotNetwork types.NetworkID
	err        error
}

func (m *mockPortfolioService) GetPortfolio(ctx context.Context, address string, network types.NetworkID) (*types.PortfolioSnapshot, error) {
	m.gotNetwork = network
	if m.err != nil {
		return nil, m.err
	}
	return &types.PortfolioSnapshot{
		Address: address,
		Network: network,
		Summary: types.PortfolioSummary{NumTokens: 1},
	}, nil
}

type mockGasService struct{ err error }

func (m *mockGasService) Summarize(ctx context.Context, address string, network types.NetworkID) (*types.GasSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &types.GasSummary{TotalGasSUI: 0.5, GasEfficiency: 85, TxCount: 3}, nil
}

func (m *mockGasService) Report(ctx context.Context, address string, network types.NetworkID) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "⛽ GAS ANALYSIS FOR WALLET: " + address + "\n", nil
}

type mockStakingService struct{}

func (m *mockStakingService) Summarize(ctx context.Context, address string, network types.NetworkID) (*types.StakingSummary, error) {
	return &types.StakingSummary{StakedSui: 10, EstimatedAPY: "6.3", Network: types.NetworkMainnet}, nil
}

func (m *mockStakingService) Report(ctx context.Context, address string, network types.NetworkID) (string, error) {
	return "🏦 STAKING ANALYSIS FOR WALLET: " + address + "\n", nil
}

type mockTaxService struct{}

func (m *mockTaxService) Summarize(ctx context.Context, address string, network types.NetworkID) (*types.TaxSummary, error) {
	return &types.TaxSummary{RealizedGains: 2, TaxableEvents: 1}, nil
}

func (m *mockTaxService) Report(ctx context.Context, address string, network types.NetworkID) (string, error) {
	return "💸 TAX ANALYSIS FOR WALLET: " + address + "\n", nil
}

type mockAdvisoryService struct {
	chatInput  service.ChatInput
	historyLim int
	err        error
	panicOnUse bool
}

func (m *mockAdvisoryService) Advise(ctx context.Context, address string, network types.NetworkID) (*types.Advisory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &types.Advisory{Advice: "hold", AdvisoryData: types.AdvisoryData{Gas: &types.GasSummary{GasEfficiency: 100}}}, nil
}

func (m *mockAdvisoryService) Chat(ctx context.Context, in service.ChatInput) (*types.ChatResponse, error) {
	if m.panicOnUse {
		panic("boom")
	}
	m.chatInput = in
	if m.err != nil {
		return nil, m.err
	}
	if in.Address == "" {
		return &types.ChatResponse{Response: service.ConnectWalletMessage}, nil
	}
	return &types.ChatResponse{Response: "**Gas Analysis Focus:**\n\nok", UserMessage: in.Message}, nil
}

func (m *mockAdvisoryService) History(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error) {
	m.historyLim = limit
	return []*models.AdvisoryRecord{{ID: "r1", Address: address, Intent: "gas", CreatedAt: time.Unix(0, 0).UTC()}}, nil
}

type mockMetricsHistory struct{}

func (m *mockMetricsHistory) LatestSnapshots(ctx context.Context, address string, network types.NetworkID, limit int) ([]*models.PortfolioSnapshot, error) {
	return []*models.PortfolioSnapshot{{Address: address, Network: network, GasEfficiency: 60}}, nil
}

type testDeps struct {
	portfolio *mockPortfolioService
	gas       *mockGasService
	advisory  *mockAdvisoryService
}

func newTestServer(t *testing.T, cfg *ServerConfig, withMetricsHistory bool) (*Server, *testDeps) {
	t.Helper()
	if cfg == nil {
		cfg = &ServerConfig{Host: "127.0.0.1", Port: "0", AllowedOrigins: []string{"http://localhost:3000"}}
	}
	deps := &testDeps{
		portfolio: &mockPortfolioService{},
		gas:       &mockGasService{},
		advisory:  &mockAdvisoryService{},
	}
	services := Services{
		Portfolio: deps.portfolio,
		Gas:       deps.gas,
		Staking:   &mockStakingService{},
		Tax:       &mockTaxService{},
		Advisory:  deps.advisory,
	}
	if withMetricsHistory {
		services.MetricsHistory = &mockMetricsHistory{}
	}
	return NewServer(cfg, services, metrics.NewMetricsService()), deps
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRootAndHealth(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"OK"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalysisRoutes_MissingAddress(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	for _, path := range []string{
		"/api/sui-portfolio", "/api/sui-gas", "/api/sui-staking", "/api/sui-tax",
		"/api/sui-gas/report", "/api/sui-staking/report", "/api/sui-tax/report",
		"/api/advice/history",
	} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path+"?address=%20", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.CodeMissingAddress, decodeError(t, rec).Error.Code)
		})
	}
}

func TestPortfolioRoute(t *testing.T) {
	s, deps := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/sui-portfolio?address="+testAddress+"&network=testnet", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot types.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, testAddress, snapshot.Address)
	assert.Equal(t, 1, snapshot.Summary.NumTokens)
	assert.Equal(t, types.NetworkTestnet, deps.portfolio.gotNetwork)
}

func TestPortfolioRoute_UnknownNetworkFallsBack(t *testing.T) {
	s, deps := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/sui-portfolio?address="+testAddress+"&network=moonnet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.DefaultNetwork, deps.portfolio.gotNetwork)
}

func TestPortfolioRoute_ConfiguredDefaultNetwork(t *testing.T) {
	s, deps := newTestServer(t, &ServerConfig{Networks: adapter.NewNetworkRegistry(nil, types.NetworkDevnet)}, false)

	rec := do(t, s, http.MethodGet, "/api/sui-portfolio?address="+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.NetworkDevnet, deps.portfolio.gotNetwork)
}

func TestSummaryRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/sui-gas?address="+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gasEfficiency":85`)

	rec = do(t, s, http.MethodGet, "/api/sui-staking?address="+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"estimatedAPY":"6.3"`)

	rec = do(t, s, http.MethodGet, "/api/sui-tax?address="+testAddress, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"taxableEvents":1`)
}

func TestReportRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	tests := map[string]string{
		"/api/sui-gas/report":     "⛽ GAS ANALYSIS",
		"/api/sui-staking/report": "🏦 STAKING ANALYSIS",
		"/api/sui-tax/report":     "💸 TAX ANALYSIS",
	}
	for path, header := range tests {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path+"?address="+testAddress, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp types.ReportResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, testAddress, resp.Address)
			assert.Equal(t, types.DefaultNetwork, resp.Network)
			assert.True(t, strings.HasPrefix(resp.Report, header))
		})
	}
}

func TestLedgerFailureMapsToBadGateway(t *testing.T) {
	s, deps := newTestServer(t, nil, false)
	deps.gas.err = apperrors.NewLedgerQueryError(types.NetworkMainnet, "suix_queryTransactionBlocks", errors.New("refused"))

	rec := do(t, s, http.MethodGet, "/api/sui-gas?address="+testAddress, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeLedgerQuery, resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestUncategorizedFailureMapsToInternal(t *testing.T) {
	s, deps := newTestServer(t, nil, false)
	deps.portfolio.err = errors.New("secret detail")

	rec := do(t, s, http.MethodGet, "/api/sui-portfolio?address="+testAddress, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestServiceErrorCodeMapsToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "user input",
			err:    &types.ServiceError{Code: apperrors.CodeInvalidParameter, Message: "bad limit"},
			status: http.StatusBadRequest,
			code:   apperrors.CodeInvalidParameter,
		},
		{
			name:   "ledger",
			err:    fmt.Errorf("wrapped: %w", &types.ServiceError{Code: apperrors.CodeLedgerQuery, Message: "node down"}),
			status: http.StatusBadGateway,
			code:   apperrors.CodeLedgerQuery,
		},
		{
			name:   "unknown code",
			err:    &types.ServiceError{Code: "SOMETHING_ELSE", Message: "odd"},
			status: http.StatusInternalServerError,
			code:   "SOMETHING_ELSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, deps := newTestServer(t, nil, false)
			deps.portfolio.err = tt.err

			rec := do(t, s, http.MethodGet, "/api/sui-portfolio?address="+testAddress, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestChatRoute(t *testing.T) {
	s, deps := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodPost, "/api/chat", chatRequest{Address: " " + testAddress + " ", Message: "What about my gas fees?", Network: "devnet"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Response, "**Gas Analysis Focus:**"))
	assert.Equal(t, "What about my gas fees?", resp.UserMessage)
	assert.Equal(t, testAddress, deps.advisory.chatInput.Address)
	assert.Equal(t, types.NetworkDevnet, deps.advisory.chatInput.Network)
}

func TestChatRoute_NoAddress(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodPost, "/api/chat", chatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"`+service.ConnectWalletMessage+`"}`, rec.Body.String())
}

func TestChatRoute_EmptyBody(t *testing.T) {
	s, deps := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"`+service.ConnectWalletMessage+`"}`, rec.Body.String())
	assert.Empty(t, deps.advisory.chatInput.Address)
	assert.Equal(t, types.DefaultNetwork, deps.advisory.chatInput.Network)
}

func TestChatRoute_InvalidBody(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidParameter, decodeError(t, rec).Error.Code)
}

func TestChatRoute_CompletionTimeout(t *testing.T) {
	s, deps := newTestServer(t, nil, false)
	deps.advisory.err = apperrors.NewCompletionError("openai", context.DeadlineExceeded)

	rec := do(t, s, http.MethodPost, "/api/chat", chatRequest{Address: testAddress, Message: "tax"})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAdviceRoute(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodPost, "/api/advice", adviceRequest{Address: testAddress})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"advice":"hold"`)
	assert.Contains(t, rec.Body.String(), `"gasEfficiency":100`)

	rec = do(t, s, http.MethodPost, "/api/advice", adviceRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdviceHistoryRoute(t *testing.T) {
	s, deps := newTestServer(t, nil, false)

	rec := do(t, s, http.MethodGet, "/api/advice/history?address="+testAddress+"&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, deps.advisory.historyLim)
	assert.Contains(t, rec.Body.String(), `"intent":"gas"`)

	rec = do(t, s, http.MethodGet, "/api/advice/history?address="+testAddress+"&limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidParameter, decodeError(t, rec).Error.Code)
}

func TestAdviceMetricsRoute(t *testing.T) {
	disabled, _ := newTestServer(t, nil, false)
	rec := do(t, disabled, http.MethodGet, "/api/advice/metrics?address="+testAddress, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	enabled, _ := newTestServer(t, nil, true)
	rec = do(t, enabled, http.MethodGet, "/api/advice/metrics?address="+testAddress+"&network=testnet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gasEfficiency":60`)
	assert.Contains(t, rec.Body.String(), `"network":"testnet"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil, false)

	do(t, s, http.MethodGet, "/health", nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
