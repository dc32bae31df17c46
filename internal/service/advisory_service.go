package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/portfolio-advisor/internal/completion"
	"github.com/portfolio-advisor/internal/logging"
	"github.com/portfolio-advisor/internal/metrics"
	"github.com/portfolio-advisor/internal/models"
	"github.com/portfolio-advisor/internal/types"
)

// ConnectWalletMessage is the chat reply when no address is supplied
const ConnectWalletMessage = "Please connect your wallet first so I can analyze your portfolio and provide personalized advice."

// AdvisoryHistory persists advisory replies
type AdvisoryHistory interface {
	Save(ctx context.Context, record *models.AdvisoryRecord) error
	ListByAddress(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error)
}

// SnapshotRecorder appends key advisory figures to an analytics store
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error
}

// ChatInput is an interactive chat request
type ChatInput struct {
	Address string          `json:"address"`
	Message string          `json:"message"`
	Network types.NetworkID `json:"network,omitempty"`
}

// AdvisoryService composes the four analyses into an advisory
type AdvisoryService struct {
	gas       *GasAnalyzer
	staking   *StakingAnalyzer
	tax       *TaxAnalyzer
	portfolio *PortfolioService
	completer completion.Completer
	history   AdvisoryHistory
	snapshots SnapshotRecorder
	metrics   metrics.MetricsService
}

// AdvisoryServiceConfig holds the collaborators of an AdvisoryService.
// History and Snapshots are optional.
type AdvisoryServiceConfig struct {
	Gas       *GasAnalyzer
	Staking   *StakingAnalyzer
	Tax       *TaxAnalyzer
	Portfolio *PortfolioService
	Completer completion.Completer
	History   AdvisoryHistory
	Snapshots SnapshotRecorder
	Metrics   metrics.MetricsService
}

// NewAdvisoryService creates an advisory service
func NewAdvisoryService(cfg AdvisoryServiceConfig) *AdvisoryService {
	return &AdvisoryService{
		gas:       cfg.Gas,
		staking:   cfg.Staking,
		tax:       cfg.Tax,
		portfolio: cfg.Portfolio,
		completer: cfg.Completer,
		history:   cfg.History,
		snapshots: cfg.Snapshots,
		metrics:   cfg.Metrics,
	}
}

// Analyze runs the gas, staking, tax and portfolio analyses concurrently.
// The first failure cancels the others and is returned unchanged.
func (s *AdvisoryService) Analyze(ctx context.Context, address string, network types.NetworkID) (*types.AdvisoryData, error) {
	var data types.AdvisoryData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gas, err := s.gas.Summarize(gctx, address, network)
		data.Gas = gas
		return err
	})
	g.Go(func() error {
		staking, err := s.staking.Summarize(gctx, address, network)
		data.Staking = staking
		return err
	})
	g.Go(func() error {
		tax, err := s.tax.Summarize(gctx, address, network)
		data.Tax = tax
		return err
	})
	g.Go(func() error {
		portfolio, err := s.portfolio.GetPortfolio(gctx, address, network)
		data.Portfolio = portfolio
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.recordSnapshot(ctx, address, network, &data)
	return &data, nil
}

// Advise composes the analyst prompt and returns the completion with its data
func (s *AdvisoryService) Advise(ctx context.Context, address string, network types.NetworkID) (*types.Advisory, error) {
	data, advice, err := s.compose(ctx, address, network)
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, &models.AdvisoryRecord{
		Address:  address,
		Network:  network,
		Intent:   IntentGeneral.String(),
		Response: advice,
	})
	if s.metrics != nil {
		s.metrics.IncAdvisories("advice")
	}

	return &types.Advisory{Advice: advice, AdvisoryData: *data}, nil
}

// Chat answers a free-text message. Without an address it returns the
// connect-wallet message and runs no analysis.
func (s *AdvisoryService) Chat(ctx context.Context, in ChatInput) (*types.ChatResponse, error) {
	if in.Address == "" {
		return &types.ChatResponse{Response: ConnectWalletMessage}, nil
	}

	data, advice, err := s.compose(ctx, in.Address, in.Network)
	if err != nil {
		return nil, err
	}

	intent := DetectIntent(in.Message)
	response := Reframe(intent, advice, data)

	s.recordHistory(ctx, &models.AdvisoryRecord{
		Address:     in.Address,
		Network:     in.Network,
		Intent:      intent.String(),
		UserMessage: in.Message,
		Response:    response,
	})
	if s.metrics != nil {
		s.metrics.IncAdvisories(intent.String())
	}

	return &types.ChatResponse{
		Response:    response,
		Data:        data,
		UserMessage: in.Message,
	}, nil
}

// History lists the latest advisory replies for address
func (s *AdvisoryService) History(ctx context.Context, address string, limit int) ([]*models.AdvisoryRecord, error) {
	if s.history == nil {
		return []*models.AdvisoryRecord{}, nil
	}
	return s.history.ListByAddress(ctx, address, limit)
}

func (s *AdvisoryService) compose(ctx context.Context, address string, network types.NetworkID) (*types.AdvisoryData, string, error) {
	data, err := s.Analyze(ctx, address, network)
	if err != nil {
		return nil, "", err
	}

	reply, err := s.completer.Complete(ctx, BuildAnalystPrompt(address, data))
	if err != nil {
		return nil, "", err
	}

	return data, completion.CleanResponse(reply), nil
}

func (s *AdvisoryService) recordHistory(ctx context.Context, record *models.AdvisoryRecord) {
	if s.history == nil {
		return
	}
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	if err := s.history.Save(ctx, record); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("address", record.Address).Warn("failed to persist advisory")
	}
}

func (s *AdvisoryService) recordSnapshot(ctx context.Context, address string, network types.NetworkID, data *types.AdvisoryData) {
	if s.snapshots == nil {
		return
	}
	snapshot := models.NewPortfolioSnapshot(address, network, data, time.Now())
	if err := s.snapshots.RecordSnapshot(ctx, snapshot); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("address", address).Warn("failed to record analytics snapshot")
	}
}
