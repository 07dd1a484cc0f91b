package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/cache"
	"github.com/cryptoinsight/backend/internal/model"
	"github.com/cryptoinsight/backend/internal/repository"
	"github.com/cryptoinsight/backend/internal/resolver"
)

// Cache TTLs for portfolio-derived data. Computed performance is valid for
// an hour; the portfolio document itself for five minutes. Both are dropped
// eagerly on any mutation.
const (
	performanceCacheTTL = time.Hour
	portfolioCacheTTL   = 5 * time.Minute
)

// PortfolioService handles portfolio business logic: document CRUD,
// buy/sell transactions, and the analytics views derived from market data.
// Derived results live only in the cache; they are never persisted.
type PortfolioService struct {
	portfolioRepo    *repository.PortfolioRepository
	transactionRepo  *repository.TransactionRepository
	marketService    *MarketService
	analyticsService *AnalyticsService
	resolver         *resolver.Resolver
	cache            *cache.TieredCache
	logger           *zap.Logger
	now              func() time.Time
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	transactionRepo *repository.TransactionRepository,
	marketService *MarketService,
	analyticsService *AnalyticsService,
	resolver *resolver.Resolver,
	cache *cache.TieredCache,
	logger *zap.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo:    portfolioRepo,
		transactionRepo:  transactionRepo,
		marketService:    marketService,
		analyticsService: analyticsService,
		resolver:         resolver,
		cache:            cache,
		logger:           logger,
		now:              time.Now,
	}
}

// GetAllPortfolios retrieves all portfolios with their holdings.
func (s *PortfolioService) GetAllPortfolios() ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios()
}

// GetPortfolio retrieves one portfolio, serving from cache when possible.
func (s *PortfolioService) GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	key := "portfolio:" + portfolioID

	if cached, ok := s.cache.Get(ctx, key); ok {
		var p model.Portfolio
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return p, nil
		}
		s.cache.Delete(ctx, key)
	}

	p, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.Portfolio{}, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		s.cache.Set(ctx, key, string(encoded), portfolioCacheTTL)
	}
	return p, nil
}

// CreatePortfolio creates an empty portfolio with the given name.
func (s *PortfolioService) CreatePortfolio(name string) (model.Portfolio, error) {
	now := s.now().UTC()
	p := model.Portfolio{
		ID:        uuid.New().String(),
		Name:      name,
		Holdings:  []model.AssetHolding{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.portfolioRepo.CreatePortfolio(p); err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// RenamePortfolio updates a portfolio's name.
func (s *PortfolioService) RenamePortfolio(ctx context.Context, portfolioID, name string) (model.Portfolio, error) {
	p, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.Portfolio{}, err
	}

	p.Name = name
	p.UpdatedAt = s.now().UTC()
	if err := s.portfolioRepo.UpdatePortfolio(p); err != nil {
		return model.Portfolio{}, err
	}

	s.invalidateCaches(ctx, portfolioID)
	return p, nil
}

// DeletePortfolio removes a portfolio and its dependent rows.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, portfolioID string) error {
	if err := s.portfolioRepo.DeletePortfolio(portfolioID); err != nil {
		return err
	}
	s.invalidateCaches(ctx, portfolioID)
	return nil
}

// AddTransaction applies a buy or sell to a portfolio. A buy of an unheld
// asset creates the holding after the asset ID is checked against the
// provider's coin catalog; a sell of an unheld asset is rejected, as is a
// sell exceeding the held amount.
func (s *PortfolioService) AddTransaction(ctx context.Context, portfolioID, assetID string, txType model.TransactionType, amount, price float64, date time.Time) (model.Transaction, error) {
	p, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.Transaction{}, err
	}

	held := 0.0
	heldFound := false
	for _, h := range p.Holdings {
		if h.AssetID == assetID {
			held = h.Amount
			heldFound = true
			break
		}
	}

	switch txType {
	case model.TransactionBuy:
		known, err := s.resolver.Validate(ctx, assetID)
		if err != nil {
			return model.Transaction{}, err
		}
		if !known {
			return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownAsset, assetID)
		}
		held += amount
	case model.TransactionSell:
		if !heldFound {
			return model.Transaction{}, apperrors.ErrSellUnheldAsset
		}
		if held < amount {
			return model.Transaction{}, apperrors.ErrInsufficientBalance
		}
		held -= amount
	default:
		return model.Transaction{}, apperrors.ErrInvalidTransactionType
	}

	if err := s.portfolioRepo.UpsertHolding(portfolioID, assetID, held); err != nil {
		return model.Transaction{}, err
	}

	tx := model.Transaction{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
		Type:        txType,
		Amount:      amount,
		Price:       price,
		Date:        date,
	}
	if err := s.transactionRepo.AddTransaction(tx); err != nil {
		return model.Transaction{}, err
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.portfolioRepo.UpdatePortfolio(p); err != nil {
		return model.Transaction{}, err
	}

	s.invalidateCaches(ctx, portfolioID)
	return tx, nil
}

// GetTransactions retrieves a portfolio's transaction history.
func (s *PortfolioService) GetTransactions(portfolioID string) ([]model.Transaction, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactions(portfolioID)
}

// Performance computes (or serves from cache) the portfolio's performance
// over the timeframe. The timeframe is canonicalized first so the cache key
// is always one of the labels invalidateCaches knows how to drop.
func (s *PortfolioService) Performance(ctx context.Context, portfolioID, timeframe string) (model.PortfolioPerformance, error) {
	timeframe = CanonicalTimeframe(timeframe)
	key := fmt.Sprintf("portfolio:%s:performance:%s", portfolioID, timeframe)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var perf model.PortfolioPerformance
		if err := json.Unmarshal([]byte(cached), &perf); err == nil {
			s.logger.Debug("returning cached portfolio performance", zap.String("portfolioId", portfolioID))
			return perf, nil
		}
		s.cache.Delete(ctx, key)
	}

	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return model.PortfolioPerformance{}, err
	}

	perf, err := s.analyticsService.Performance(ctx, p.Holdings, timeframe)
	if err != nil {
		return model.PortfolioPerformance{}, err
	}

	if encoded, err := json.Marshal(perf); err == nil {
		s.cache.Set(ctx, key, string(encoded), performanceCacheTTL)
	}
	return perf, nil
}

// TotalValue computes the portfolio's current market value. Holdings whose
// price is unavailable are excluded from the sum, per the valuation rule.
func (s *PortfolioService) TotalValue(ctx context.Context, portfolioID string) (float64, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return 0, err
	}
	if len(p.Holdings) == 0 {
		return 0, nil
	}

	prices, err := s.marketService.SpotPrices(ctx, holdingIDs(p.Holdings))
	if err != nil {
		return 0, err
	}
	return Valuation(p.Holdings, prices), nil
}

// Allocation returns each holding's share of the portfolio's current value.
// Here, and only here, a missing spot price values the holding at 0 so the
// view always covers every held asset.
func (s *PortfolioService) Allocation(ctx context.Context, portfolioID string) ([]model.AssetAllocation, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if len(p.Holdings) == 0 {
		return []model.AssetAllocation{}, nil
	}

	prices, err := s.marketService.SpotPrices(ctx, holdingIDs(p.Holdings))
	if err != nil {
		s.logger.Warn("failed to fetch current prices for allocation", zap.Error(err))
		prices = map[string]model.SpotPrice{}
	}

	allocation := make([]model.AssetAllocation, len(p.Holdings))
	totalValue := 0.0
	for i, h := range p.Holdings {
		value := h.Amount * prices[h.AssetID].Price
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		allocation[i] = model.AssetAllocation{
			AssetID: h.AssetID,
			Amount:  h.Amount,
			Value:   value,
		}
		totalValue += value
	}

	for i := range allocation {
		if totalValue != 0 {
			allocation[i].Percentage = allocation[i].Value / totalValue * 100
		}
	}
	return allocation, nil
}

// RebalanceSuggestions computes, per holding, the amount change needed to
// move from the current allocation to the target percentages.
func (s *PortfolioService) RebalanceSuggestions(ctx context.Context, portfolioID string, targetAllocation map[string]float64) ([]model.RebalanceSuggestion, error) {
	if len(targetAllocation) == 0 {
		return nil, apperrors.ErrInvalidTargetAllocation
	}

	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if len(p.Holdings) == 0 {
		return []model.RebalanceSuggestion{}, nil
	}

	prices, err := s.marketService.SpotPrices(ctx, holdingIDs(p.Holdings))
	if err != nil {
		return nil, err
	}

	totalValue := 0.0
	for _, h := range p.Holdings {
		totalValue += h.Amount * prices[h.AssetID].Price
	}

	suggestions := make([]model.RebalanceSuggestion, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		currentPrice := prices[h.AssetID].Price
		currentValue := h.Amount * currentPrice

		currentPercentage := 0.0
		if totalValue != 0 {
			currentPercentage = currentValue / totalValue * 100
		}
		targetPercentage := targetAllocation[h.AssetID]

		amountChange := 0.0
		if currentPrice != 0 {
			amountChange = (targetPercentage - currentPercentage) / 100 * totalValue / currentPrice
		}

		suggestions = append(suggestions, model.RebalanceSuggestion{
			AssetID:           h.AssetID,
			CurrentPercentage: currentPercentage,
			TargetPercentage:  targetPercentage,
			AmountChange:      amountChange,
		})
	}
	return suggestions, nil
}

// Analytics computes annualized return statistics for the portfolio.
func (s *PortfolioService) Analytics(ctx context.Context, portfolioID string) (model.PortfolioAnalytics, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}
	return s.analyticsService.Analytics(ctx, p.Holdings)
}

// Risk computes downside-risk metrics for the portfolio. marketAssetID
// selects the beta proxy; empty means the first holding.
func (s *PortfolioService) Risk(ctx context.Context, portfolioID, marketAssetID string) (model.RiskAssessment, error) {
	p, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return model.RiskAssessment{}, err
	}
	return s.analyticsService.Risk(ctx, p.Holdings, marketAssetID)
}

// invalidateCaches drops the portfolio document and every cached performance
// timeframe after a mutation.
func (s *PortfolioService) invalidateCaches(ctx context.Context, portfolioID string) {
	s.cache.Delete(ctx, "portfolio:"+portfolioID)
	for _, timeframe := range Timeframes {
		s.cache.Delete(ctx, fmt.Sprintf("portfolio:%s:performance:%s", portfolioID, timeframe))
	}
	s.logger.Debug("invalidated portfolio caches", zap.String("portfolioId", portfolioID))
}

// holdingIDs extracts the asset identifiers of a holdings list.
func holdingIDs(holdings []model.AssetHolding) []string {
	ids := make([]string, len(holdings))
	for i, h := range holdings {
		ids[i] = h.AssetID
	}
	return ids
}
