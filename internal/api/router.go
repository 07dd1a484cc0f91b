package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/api/handlers"
	custommiddleware "github.com/cryptoinsight/backend/internal/api/middleware"
	"github.com/cryptoinsight/backend/internal/config"
	"github.com/cryptoinsight/backend/internal/resolver"
	"github.com/cryptoinsight/backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	db *sql.DB,
	marketService *service.MarketService,
	portfolioService *service.PortfolioService,
	symbolResolver *resolver.Resolver,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		// Market data namespace
		r.Route("/crypto", func(r chi.Router) {
			marketHandler := handlers.NewMarketHandler(marketService, symbolResolver)
			r.Get("/prices", marketHandler.Prices)
			r.Get("/details/{coinId}", marketHandler.Details)
			r.Get("/history/{coinId}", marketHandler.History)
			r.Get("/top", marketHandler.Top)
			r.Get("/resolve/{symbol}", marketHandler.Resolve)
		})

		// Portfolio namespace
		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.GetPortfolio)
				r.Put("/", portfolioHandler.UpdatePortfolio)
				r.Delete("/", portfolioHandler.DeletePortfolio)
				r.Get("/transactions", portfolioHandler.Transactions)
				r.Post("/transactions", portfolioHandler.CreateTransaction)
				r.Get("/value", portfolioHandler.Value)
				r.Get("/performance", portfolioHandler.Performance)
				r.Get("/allocation", portfolioHandler.Allocation)
				r.Post("/rebalance", portfolioHandler.Rebalance)
				r.Get("/analytics", portfolioHandler.Analytics)
				r.Get("/risk", portfolioHandler.Risk)
			})
		})
	})

	return r
}
