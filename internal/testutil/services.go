package testutil

import (
	"context"
	"database/sql"
	"testing"

	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/cache"
	"github.com/cryptoinsight/backend/internal/repository"
	"github.com/cryptoinsight/backend/internal/resolver"
	"github.com/cryptoinsight/backend/internal/service"
)

// NewTestMarketService wires a market service to the stub with a
// memory-only cache.
func NewTestMarketService(t *testing.T, stub *CoinGeckoStub) *service.MarketService {
	t.Helper()
	tiered := cache.New(context.Background(), "", zap.NewNop())
	return service.NewMarketService(stub.Client(), tiered, zap.NewNop())
}

// NewTestResolver wires a symbol resolver to the stub with a memory-only
// cache.
func NewTestResolver(t *testing.T, stub *CoinGeckoStub) *resolver.Resolver {
	t.Helper()
	tiered := cache.New(context.Background(), "", zap.NewNop())
	return resolver.NewResolver(stub.Client(), tiered, zap.NewNop())
}

// NewTestPortfolioService wires a fully functional portfolio service against
// the given database and stub, with a memory-only cache.
func NewTestPortfolioService(t *testing.T, db *sql.DB, stub *CoinGeckoStub) *service.PortfolioService {
	t.Helper()

	logger := zap.NewNop()
	tiered := cache.New(context.Background(), "", logger)
	client := stub.Client()
	market := service.NewMarketService(client, tiered, logger)
	analytics := service.NewAnalyticsService(market, logger)
	return service.NewPortfolioService(
		repository.NewPortfolioRepository(db),
		repository.NewTransactionRepository(db),
		market,
		analytics,
		resolver.NewResolver(client, tiered, logger),
		tiered,
		logger,
	)
}
