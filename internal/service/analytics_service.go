package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/model"
)

// Timeframes lists the supported lookback windows, shortest first.
var Timeframes = []string{"1d", "7d", "30d", "90d", "1y"}

// CanonicalTimeframe maps arbitrary input to a supported timeframe label.
// Unrecognized input falls back to "30d", matching TimeframeDays, so cache
// keys built from a timeframe always use a canonical label.
func CanonicalTimeframe(timeframe string) string {
	for _, tf := range Timeframes {
		if timeframe == tf {
			return timeframe
		}
	}
	return "30d"
}

// TimeframeDays maps a timeframe to its lookback window in days.
// Unrecognized input falls back to 30 days.
func TimeframeDays(timeframe string) int {
	switch timeframe {
	case "1d":
		return 1
	case "7d":
		return 7
	case "30d":
		return 30
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 30
	}
}

// AnalyticsService derives portfolio-level financial metrics from historical
// price series. It is stateless: every operation fetches the series it needs
// through the market service and reduces them in place.
type AnalyticsService struct {
	marketService *MarketService
	logger        *zap.Logger
	now           func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService with the provided market service.
func NewAnalyticsService(marketService *MarketService, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		marketService: marketService,
		logger:        logger,
		now:           time.Now,
	}
}

// Valuation sums amount × current price across holdings. Holdings whose
// price is unavailable or non-finite are excluded from the sum, not
// zero-filled; the allocation view is the one place the zero-fill rule
// applies instead.
func Valuation(holdings []model.AssetHolding, prices map[string]model.SpotPrice) float64 {
	total := 0.0
	for _, h := range holdings {
		spot, ok := prices[h.AssetID]
		if !ok || math.IsNaN(spot.Price) || math.IsInf(spot.Price, 0) {
			continue
		}
		total += h.Amount * spot.Price
	}
	return total
}

// Performance computes each holding's value change over the timeframe window
// and aggregates the valid results. Holdings with fewer than two usable
// price points are excluded from the aggregate. When no holding produces a
// usable result the error distinguishes a provider outage
// (ErrDataUnavailable) from genuinely thin data (ErrInsufficientData).
func (s *AnalyticsService) Performance(ctx context.Context, holdings []model.AssetHolding, timeframe string) (model.PortfolioPerformance, error) {
	days := TimeframeDays(timeframe)
	end := s.now()
	start := end.Add(-time.Duration(days) * 24 * time.Hour)

	seriesByAsset, fetchErr := s.fetchSeries(ctx, holdings, fmt.Sprintf("%d", days))
	if ctx.Err() != nil {
		return model.PortfolioPerformance{}, ctx.Err()
	}

	performances := []model.AssetPerformance{}
	for _, h := range holdings {
		series, ok := seriesByAsset[h.AssetID]
		if !ok {
			continue
		}
		if perf, ok := assetPerformance(h, series, start, end); ok {
			performances = append(performances, perf)
		} else {
			s.logger.Warn("insufficient historical data for asset", zap.String("assetId", h.AssetID))
		}
	}

	if len(performances) == 0 {
		if fetchErr != nil {
			return model.PortfolioPerformance{}, fetchErr
		}
		return model.PortfolioPerformance{}, apperrors.ErrInsufficientData
	}

	startValue := 0.0
	endValue := 0.0
	for _, perf := range performances {
		startValue += perf.StartValue
		endValue += perf.EndValue
	}

	changePercentage := 0.0
	if startValue != 0 {
		changePercentage = (endValue - startValue) / startValue * 100
	}

	return model.PortfolioPerformance{
		Timeframe:         timeframe,
		StartValue:        startValue,
		EndValue:          endValue,
		Change:            endValue - startValue,
		ChangePercentage:  changePercentage,
		AssetPerformances: performances,
	}, nil
}

// Analytics computes annualized return statistics from a year of daily
// returns.
func (s *AnalyticsService) Analytics(ctx context.Context, holdings []model.AssetHolding) (model.PortfolioAnalytics, error) {
	returns, err := s.yearlyReturns(ctx, holdings)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	volatility, err := AnnualizedVolatility(returns)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}
	sharpe, err := SharpeRatio(returns, DefaultDailyRiskFreeRate)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}
	drawdown, err := MaxDrawdown(returns)
	if err != nil {
		return model.PortfolioAnalytics{}, err
	}

	return model.PortfolioAnalytics{
		AverageReturn: mean(filterFinite(returns)) * tradingDaysPerYear,
		Volatility:    volatility,
		SharpeRatio:   sharpe,
		MaxDrawdown:   drawdown,
	}, nil
}

// Risk computes downside-risk metrics from a year of daily returns.
// marketAssetID selects the market proxy for beta; when empty the
// portfolio's first holding is used.
func (s *AnalyticsService) Risk(ctx context.Context, holdings []model.AssetHolding, marketAssetID string) (model.RiskAssessment, error) {
	if len(holdings) == 0 {
		return model.RiskAssessment{}, apperrors.ErrInsufficientData
	}
	if marketAssetID == "" {
		marketAssetID = holdings[0].AssetID
	}

	returns, err := s.yearlyReturns(ctx, holdings)
	if err != nil {
		return model.RiskAssessment{}, err
	}

	volatility, err := AnnualizedVolatility(returns)
	if err != nil {
		return model.RiskAssessment{}, err
	}
	valueAtRisk, err := ValueAtRisk(returns, DefaultVaRConfidence)
	if err != nil {
		return model.RiskAssessment{}, err
	}

	marketSeries, err := s.marketService.HistoricalSeries(ctx, marketAssetID, "365")
	if err != nil {
		return model.RiskAssessment{}, err
	}
	beta, err := BetaToMarket(returns, ReturnsFromSeries(marketSeries))
	if err != nil {
		return model.RiskAssessment{}, err
	}

	return model.RiskAssessment{
		Volatility:   volatility,
		ValueAtRisk:  valueAtRisk,
		BetaToMarket: beta,
	}, nil
}

// yearlyReturns fetches 365-day series for every holding and reduces them to
// the portfolio's daily-return series.
func (s *AnalyticsService) yearlyReturns(ctx context.Context, holdings []model.AssetHolding) ([]float64, error) {
	seriesByAsset, fetchErr := s.fetchSeries(ctx, holdings, "365")
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	returns := DailyReturns(holdings, seriesByAsset)
	if len(returns) == 0 {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, apperrors.ErrInsufficientData
	}
	return returns, nil
}

// fetchSeries fetches each holding's series concurrently (fan-out/fan-in).
// A failed asset is excluded from the result rather than failing the batch;
// the first error is returned alongside so callers can report it when
// nothing was usable. The group context propagates cancellation to every
// in-flight fetch.
func (s *AnalyticsService) fetchSeries(ctx context.Context, holdings []model.AssetHolding, days string) (map[string]model.PriceSeries, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	seriesByAsset := make(map[string]model.PriceSeries, len(holdings))
	var firstErr error

	for _, h := range holdings {
		assetID := h.AssetID
		g.Go(func() error {
			series, err := s.marketService.HistoricalSeries(ctx, assetID, days)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("failed to fetch historical series",
					zap.String("assetId", assetID),
					zap.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			seriesByAsset[assetID] = series
			return nil
		})
	}

	// Goroutines only return nil; Wait is for the fan-in barrier.
	_ = g.Wait()

	return seriesByAsset, firstErr
}

// assetPerformance derives one holding's performance over the window. The
// start and end prices are the points closest in time to the window bounds,
// found by linear scan. Returns ok=false when the series has fewer than two
// points or the result is not finite.
func assetPerformance(h model.AssetHolding, series model.PriceSeries, start, end time.Time) (model.AssetPerformance, bool) {
	if len(series) < 2 {
		return model.AssetPerformance{}, false
	}

	startPrice, okStart := closestPrice(series, start)
	endPrice, okEnd := closestPrice(series, end)
	if !okStart || !okEnd {
		return model.AssetPerformance{}, false
	}

	startValue := h.Amount * startPrice
	endValue := h.Amount * endPrice
	change := endValue - startValue
	changePercentage := 0.0
	if startValue != 0 {
		changePercentage = change / startValue * 100
	}

	for _, v := range []float64{startValue, endValue, change, changePercentage} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.AssetPerformance{}, false
		}
	}

	return model.AssetPerformance{
		AssetID:          h.AssetID,
		StartValue:       startValue,
		EndValue:         endValue,
		Change:           change,
		ChangePercentage: changePercentage,
	}, true
}

// closestPrice returns the finite price whose timestamp has the smallest
// absolute distance to target.
func closestPrice(series model.PriceSeries, target time.Time) (float64, bool) {
	targetMillis := target.UnixMilli()

	best := 0.0
	bestDistance := int64(math.MaxInt64)
	found := false
	for _, p := range series {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		distance := p.TimestampMillis - targetMillis
		if distance < 0 {
			distance = -distance
		}
		if distance < bestDistance {
			bestDistance = distance
			best = p.Price
			found = true
		}
	}
	return best, found
}
