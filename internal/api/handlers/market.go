package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cryptoinsight/backend/internal/api/response"
	"github.com/cryptoinsight/backend/internal/resolver"
	"github.com/cryptoinsight/backend/internal/service"
)

// defaultTopAssetsLimit bounds the markets listing when no limit is given.
const defaultTopAssetsLimit = 50

// MarketHandler handles HTTP requests for market data endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// to the market service and the symbol resolver.
type MarketHandler struct {
	marketService *service.MarketService
	resolver      *resolver.Resolver
}

// NewMarketHandler creates a new MarketHandler with the provided dependencies.
func NewMarketHandler(marketService *service.MarketService, resolver *resolver.Resolver) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		resolver:      resolver,
	}
}

// Prices handles GET requests for current USD prices of one or more assets.
//
// Endpoint: GET /api/crypto/prices?ids=bitcoin,ethereum
// Response: 200 OK with a map of coin ID to spot price
// Error: 400 Bad Request if the ids parameter is empty
// Error: 502 Bad Gateway if the upstream provider is unavailable
func (h *MarketHandler) Prices(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		response.RespondError(w, http.StatusBadRequest, "ids parameter is required", "")
		return
	}

	ids := strings.Split(raw, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}

	prices, err := h.marketService.SpotPrices(r.Context(), ids)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve prices")
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}

// Details handles GET requests for one asset's descriptive and market data.
//
// Endpoint: GET /api/crypto/details/{coinId}
// Response: 200 OK with asset details
// Error: 502 Bad Gateway if the upstream provider is unavailable
func (h *MarketHandler) Details(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "coinId")

	details, err := h.marketService.AssetDetails(r.Context(), coinID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve asset details")
		return
	}

	response.RespondJSON(w, http.StatusOK, details)
}

// History handles GET requests for an asset's historical price series over
// a timeframe. An unrecognized timeframe falls back to 30 days.
//
// Endpoint: GET /api/crypto/history/{coinId}?timeframe=30d
// Response: 200 OK with the price series
// Error: 502 Bad Gateway if the upstream provider is unavailable
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "coinId")
	timeframe := r.URL.Query().Get("timeframe")

	series, err := h.marketService.HistoricalSeriesByTimeframe(r.Context(), coinID, timeframe)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve price history")
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}

// Top handles GET requests for the top assets by market capitalization.
//
// Endpoint: GET /api/crypto/top?limit=20
// Response: 200 OK with array of assets
// Error: 400 Bad Request if limit is not a positive integer
// Error: 502 Bad Gateway if the upstream provider is unavailable
func (h *MarketHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopAssetsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.RespondError(w, http.StatusBadRequest, "limit must be a positive integer", raw)
			return
		}
		limit = parsed
	}

	assets, err := h.marketService.TopAssets(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve top assets")
		return
	}

	response.RespondJSON(w, http.StatusOK, assets)
}

// ResolveResponse represents the symbol resolution response
type ResolveResponse struct {
	Symbol string `json:"symbol"`
	CoinID string `json:"coinId"`
}

// Resolve handles GET requests to resolve a ticker symbol to its coin ID.
// Matching is case-insensitive.
//
// Endpoint: GET /api/crypto/resolve/{symbol}
// Response: 200 OK with the resolved coin ID
// Error: 404 Not Found if the symbol is not in the coin catalog
// Error: 502 Bad Gateway if the catalog cannot be fetched
func (h *MarketHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	coinID, err := h.resolver.Resolve(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, err, "failed to resolve symbol")
		return
	}

	response.RespondJSON(w, http.StatusOK, ResolveResponse{Symbol: symbol, CoinID: coinID})
}
