package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cryptoinsight/backend/internal/api/request"
	"github.com/cryptoinsight/backend/internal/api/response"
	"github.com/cryptoinsight/backend/internal/model"
	"github.com/cryptoinsight/backend/internal/service"
	"github.com/cryptoinsight/backend/internal/validation"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the portfolioService.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependency.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolios handles GET requests to retrieve all portfolios.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with array of portfolios
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, _ *http.Request) {
	portfolios, err := h.portfolioService.GetAllPortfolios()
	if err != nil {
		respondServiceError(w, err, "failed to retrieve portfolios")
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST requests to create a new portfolio.
//
// Endpoint: POST /api/portfolio
// Response: 201 Created with the new portfolio
// Error: 400 Bad Request if the body is malformed or the name is invalid
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	p, err := h.portfolioService.CreatePortfolio(req.Name)
	if err != nil {
		respondServiceError(w, err, "failed to create portfolio")
		return
	}

	response.RespondJSON(w, http.StatusCreated, p)
}

// GetPortfolio handles GET requests to retrieve a single portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}
// Response: 200 OK with the portfolio
// Error: 400 Bad Request if the portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	p, err := h.portfolioService.GetPortfolio(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve portfolio")
		return
	}

	response.RespondJSON(w, http.StatusOK, p)
}

// UpdatePortfolio handles PUT requests to rename a portfolio.
//
// Endpoint: PUT /api/portfolio/{uuid}
// Response: 200 OK with the updated portfolio
// Error: 400 Bad Request if the body is malformed or the name is invalid
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req request.UpdatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if req.Name == nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "name is required")
		return
	}

	p, err := h.portfolioService.RenamePortfolio(r.Context(), portfolioID, *req.Name)
	if err != nil {
		respondServiceError(w, err, "failed to update portfolio")
		return
	}

	response.RespondJSON(w, http.StatusOK, p)
}

// DeletePortfolio handles DELETE requests to remove a portfolio.
//
// Endpoint: DELETE /api/portfolio/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	if err := h.portfolioService.DeletePortfolio(r.Context(), portfolioID); err != nil {
		respondServiceError(w, err, "failed to delete portfolio")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Transactions handles GET requests for a portfolio's transaction history.
//
// Endpoint: GET /api/portfolio/{uuid}/transactions
// Response: 200 OK with array of transactions, oldest first
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	transactions, err := h.portfolioService.GetTransactions(portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve transactions")
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST requests to record a buy or sell.
//
// Endpoint: POST /api/portfolio/{uuid}/transactions
// Response: 201 Created with the recorded transaction
// Error: 400 Bad Request on validation failure, selling an unheld asset, or
// selling more than is held
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, _ = time.Parse(time.RFC3339, req.Date)
	}

	tx, err := h.portfolioService.AddTransaction(
		r.Context(),
		portfolioID,
		req.CoinID,
		model.TransactionType(req.Type),
		req.Amount,
		req.Price,
		date,
	)
	if err != nil {
		respondServiceError(w, err, "failed to record transaction")
		return
	}

	response.RespondJSON(w, http.StatusCreated, tx)
}

// PortfolioValueResponse represents the current-value response
type PortfolioValueResponse struct {
	TotalValue float64 `json:"totalValue"`
}

// Value handles GET requests for the portfolio's current market value.
// Holdings without an available price are excluded from the sum.
//
// Endpoint: GET /api/portfolio/{uuid}/value
// Response: 200 OK with PortfolioValueResponse
// Error: 404 Not Found if the portfolio does not exist
// Error: 502 Bad Gateway if spot prices cannot be fetched
func (h *PortfolioHandler) Value(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	totalValue, err := h.portfolioService.TotalValue(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to compute portfolio value")
		return
	}

	response.RespondJSON(w, http.StatusOK, PortfolioValueResponse{TotalValue: totalValue})
}

// Performance handles GET requests for portfolio performance over a timeframe.
//
// Endpoint: GET /api/portfolio/{uuid}/performance?timeframe=30d
// Response: 200 OK with the performance summary
// Error: 404 Not Found if the portfolio does not exist
// Error: 502 Bad Gateway if price data cannot be fetched
func (h *PortfolioHandler) Performance(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "30d"
	}

	perf, err := h.portfolioService.Performance(r.Context(), portfolioID, timeframe)
	if err != nil {
		respondServiceError(w, err, "failed to compute performance")
		return
	}

	response.RespondJSON(w, http.StatusOK, perf)
}

// Allocation handles GET requests for the portfolio's current allocation.
//
// Endpoint: GET /api/portfolio/{uuid}/allocation
// Response: 200 OK with per-asset values and percentages
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) Allocation(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	allocation, err := h.portfolioService.Allocation(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to compute allocation")
		return
	}

	response.RespondJSON(w, http.StatusOK, allocation)
}

// Rebalance handles POST requests to compute rebalancing suggestions toward
// a target allocation.
//
// Endpoint: POST /api/portfolio/{uuid}/rebalance
// Response: 200 OK with per-asset amount changes
// Error: 400 Bad Request if the target allocation is missing or malformed
// Error: 404 Not Found if the portfolio does not exist
func (h *PortfolioHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req request.RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateRebalance(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	suggestions, err := h.portfolioService.RebalanceSuggestions(r.Context(), portfolioID, req.TargetAllocation)
	if err != nil {
		respondServiceError(w, err, "failed to compute rebalance suggestions")
		return
	}

	response.RespondJSON(w, http.StatusOK, suggestions)
}

// Analytics handles GET requests for annualized return statistics.
//
// Endpoint: GET /api/portfolio/{uuid}/analytics
// Response: 200 OK with volatility, Sharpe ratio and max drawdown
// Error: 404 Not Found if the portfolio does not exist
// Error: 500 Internal Server Error if there is too little data to calculate
func (h *PortfolioHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	analytics, err := h.portfolioService.Analytics(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, err, "failed to compute analytics")
		return
	}

	response.RespondJSON(w, http.StatusOK, analytics)
}

// Risk handles GET requests for downside-risk metrics. The optional market
// query parameter selects the beta proxy asset; it defaults to the first
// holding.
//
// Endpoint: GET /api/portfolio/{uuid}/risk?market=bitcoin
// Response: 200 OK with volatility, value at risk and beta
// Error: 404 Not Found if the portfolio does not exist
// Error: 500 Internal Server Error if there is too little data to calculate
func (h *PortfolioHandler) Risk(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")
	marketAssetID := r.URL.Query().Get("market")

	risk, err := h.portfolioService.Risk(r.Context(), portfolioID, marketAssetID)
	if err != nil {
		respondServiceError(w, err, "failed to compute risk assessment")
		return
	}

	response.RespondJSON(w, http.StatusOK, risk)
}
