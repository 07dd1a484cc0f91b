package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/cache"
	"github.com/cryptoinsight/backend/internal/coingecko"
	"github.com/cryptoinsight/backend/internal/model"
)

// Cache TTLs for market data. Historical series move slowly enough for an
// hour; the top-assets ranking is refreshed more aggressively.
const (
	historyCacheTTL   = time.Hour
	topAssetsCacheTTL = 5 * time.Minute
)

// MarketService exposes provider market data to the rest of the
// application, caching the responses that are expensive or slow-moving.
// Spot prices are deliberately not cached here: freshness requirements
// differ per caller, so caching is the caller's responsibility.
type MarketService struct {
	client *coingecko.Client
	cache  *cache.TieredCache
	logger *zap.Logger
}

// NewMarketService creates a new MarketService with the provided client and cache.
func NewMarketService(client *coingecko.Client, cache *cache.TieredCache, logger *zap.Logger) *MarketService {
	return &MarketService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// SpotPrices fetches current quotes for the given asset identifiers.
func (s *MarketService) SpotPrices(ctx context.Context, assetIDs []string) (map[string]model.SpotPrice, error) {
	return s.client.FetchSpotPrices(ctx, assetIDs)
}

// HistoricalSeries returns the daily price series for one asset over the
// given number of days ("max" for the full history), cached for an hour.
func (s *MarketService) HistoricalSeries(ctx context.Context, assetID, days string) (model.PriceSeries, error) {
	key := fmt.Sprintf("history:%s:%s", assetID, days)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var series model.PriceSeries
		if err := json.Unmarshal([]byte(cached), &series); err == nil {
			return series, nil
		}
		s.cache.Delete(ctx, key)
	}

	series, err := s.client.FetchHistoricalSeries(ctx, assetID, days)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(series); err == nil {
		s.cache.Set(ctx, key, string(encoded), historyCacheTTL)
	}
	return series, nil
}

// HistoricalSeriesByTimeframe maps a timeframe to its day count and fetches
// the series.
func (s *MarketService) HistoricalSeriesByTimeframe(ctx context.Context, assetID, timeframe string) (model.PriceSeries, error) {
	return s.HistoricalSeries(ctx, assetID, fmt.Sprintf("%d", TimeframeDays(timeframe)))
}

// AssetDetails fetches one asset's metadata and flattens it into the
// application's detail shape.
func (s *MarketService) AssetDetails(ctx context.Context, assetID string) (model.AssetDetails, error) {
	detail, err := s.client.FetchAssetDetails(ctx, assetID)
	if err != nil {
		return model.AssetDetails{}, err
	}

	website := ""
	if len(detail.Links.Homepage) > 0 {
		website = detail.Links.Homepage[0]
	}

	return model.AssetDetails{
		ID:                detail.ID,
		Symbol:            detail.Symbol,
		Name:              detail.Name,
		Image:             detail.Image.Large,
		CurrentPrice:      detail.MarketData.CurrentPrice["usd"],
		MarketCap:         detail.MarketData.MarketCap["usd"],
		TotalVolume:       detail.MarketData.TotalVolume["usd"],
		High24h:           detail.MarketData.High24h["usd"],
		Low24h:            detail.MarketData.Low24h["usd"],
		PriceChange24h:    detail.MarketData.PriceChangePercentage24h,
		PriceChange7d:     detail.MarketData.PriceChangePercentage7d,
		PriceChange30d:    detail.MarketData.PriceChangePercentage30d,
		CirculatingSupply: detail.MarketData.CirculatingSupply,
		TotalSupply:       detail.MarketData.TotalSupply,
		MaxSupply:         detail.MarketData.MaxSupply,
		AllTimeHigh: model.PriceAt{
			Price: detail.MarketData.ATH["usd"],
			Date:  detail.MarketData.ATHDate["usd"],
		},
		AllTimeLow: model.PriceAt{
			Price: detail.MarketData.ATL["usd"],
			Date:  detail.MarketData.ATLDate["usd"],
		},
		Description: detail.Description.EN,
		Website:     website,
	}, nil
}

// TopAssets returns the market-cap ranked asset list, cached for five
// minutes.
func (s *MarketService) TopAssets(ctx context.Context, limit int) ([]model.TopAsset, error) {
	key := fmt.Sprintf("top_assets:%d", limit)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var assets []model.TopAsset
		if err := json.Unmarshal([]byte(cached), &assets); err == nil {
			return assets, nil
		}
		s.cache.Delete(ctx, key)
	}

	assets, err := s.client.FetchTopAssets(ctx, limit)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(assets); err == nil {
		s.cache.Set(ctx, key, string(encoded), topAssetsCacheTTL)
	}
	return assets, nil
}
