// Package resolver translates human-entered ticker symbols (e.g. "BTC") into
// the canonical asset identifiers (e.g. "bitcoin") required by the provider.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/cache"
	"github.com/cryptoinsight/backend/internal/coingecko"
	"github.com/cryptoinsight/backend/internal/model"
)

const (
	coinsListCacheKey = "coingecko_coins_list"
	coinsListTTL      = 24 * time.Hour
)

// Resolver resolves symbols against the provider's coin catalog, fetched at
// most once per TTL window and held as a flat list in the cache.
type Resolver struct {
	client *coingecko.Client
	cache  *cache.TieredCache
	logger *zap.Logger
}

// NewResolver creates a Resolver backed by the given client and cache.
func NewResolver(client *coingecko.Client, cache *cache.TieredCache, logger *zap.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Catalog returns the provider's coin catalog, serving from cache when
// possible. A corrupt cache entry is discarded and refetched.
func (r *Resolver) Catalog(ctx context.Context) ([]model.CatalogEntry, error) {
	if cached, ok := r.cache.Get(ctx, coinsListCacheKey); ok {
		var catalog []model.CatalogEntry
		if err := json.Unmarshal([]byte(cached), &catalog); err == nil {
			return catalog, nil
		}
		r.logger.Warn("discarding corrupt cached coins list")
		r.cache.Delete(ctx, coinsListCacheKey)
	}

	r.logger.Info("fetching coins list from CoinGecko")
	catalog, err := r.client.FetchCoinsList(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(catalog); err == nil {
		r.cache.Set(ctx, coinsListCacheKey, string(encoded), coinsListTTL)
	}
	return catalog, nil
}

// Resolve maps a ticker symbol to its canonical asset identifier with a
// case-insensitive match against the catalog. Returns ErrUnknownSymbol when
// no entry matches.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, error) {
	catalog, err := r.Catalog(ctx)
	if err != nil {
		return "", err
	}

	lowered := strings.ToLower(symbol)
	for _, entry := range catalog {
		if strings.ToLower(entry.Symbol) == lowered {
			return entry.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownSymbol, symbol)
}

// Validate reports whether assetID appears as an id in the catalog.
func (r *Resolver) Validate(ctx context.Context, assetID string) (bool, error) {
	catalog, err := r.Catalog(ctx)
	if err != nil {
		return false, err
	}

	for _, entry := range catalog {
		if entry.ID == assetID {
			return true, nil
		}
	}
	return false, nil
}
