package model

import "time"

// Portfolio represents a user's crypto portfolio with its held assets.
type Portfolio struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Holdings  []AssetHolding `json:"holdings"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// AssetHolding represents a position in one asset, keyed by the provider's
// canonical asset identifier (e.g. "bitcoin"), not the ticker symbol.
type AssetHolding struct {
	AssetID string  `json:"coinId"`
	Amount  float64 `json:"amount"`
}

// TransactionType enumerates supported portfolio transactions.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction records a single buy or sell against a portfolio.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	AssetID     string          `json:"coinId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Price       float64         `json:"price"`
	Date        time.Time       `json:"date"`
}
