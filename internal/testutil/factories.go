package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cryptoinsight/backend/internal/model"
)

// CreatePortfolio inserts a portfolio row and returns the model.
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()

	now := time.Now().UTC()
	p := model.Portfolio{
		ID:        uuid.New().String(),
		Name:      name,
		Holdings:  []model.AssetHolding{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		"INSERT INTO portfolio (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return p
}

// AddHolding inserts a holding row for the portfolio.
func AddHolding(t *testing.T, db *sql.DB, portfolioID, assetID string, amount float64) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO holding (portfolio_id, asset_id, amount) VALUES (?, ?, ?)",
		portfolioID, assetID, amount,
	)
	if err != nil {
		t.Fatalf("Failed to create test holding: %v", err)
	}
}

// DailySeries builds a price series with one point per day, ending at end.
// Prices are taken in order, one per day, oldest first.
func DailySeries(end time.Time, prices ...float64) model.PriceSeries {
	series := make(model.PriceSeries, len(prices))
	for i, price := range prices {
		ts := end.AddDate(0, 0, -(len(prices) - 1 - i))
		series[i] = model.PricePoint{
			TimestampMillis: ts.UnixMilli(),
			Price:           price,
		}
	}
	return series
}
