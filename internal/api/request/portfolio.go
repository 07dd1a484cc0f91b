package request

// CreatePortfolioRequest represents the request body for creating a portfolio
type CreatePortfolioRequest struct {
	Name string `json:"name"`
}

type UpdatePortfolioRequest struct {
	Name *string `json:"name,omitempty"`
}

// CreateTransactionRequest represents the request body for recording a buy
// or sell against a portfolio.
type CreateTransactionRequest struct {
	CoinID string  `json:"coinId"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
	Date   string  `json:"date"`
}

// RebalanceRequest carries the target percentage per coin ID.
type RebalanceRequest struct {
	TargetAllocation map[string]float64 `json:"targetAllocation"`
}
