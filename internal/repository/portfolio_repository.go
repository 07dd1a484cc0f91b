package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio and
// holding tables.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves all portfolios with their holdings.
// Returns an empty slice when no portfolios exist.
func (r *PortfolioRepository) GetPortfolios() ([]model.Portfolio, error) {
	query := `
          SELECT id, name, created_at, updated_at
          FROM portfolio
          ORDER BY created_at
      `
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		var p model.Portfolio

		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}

		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	for i := range portfolios {
		holdings, err := r.getHoldings(portfolios[i].ID)
		if err != nil {
			return nil, err
		}
		portfolios[i].Holdings = holdings
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio with its holdings.
// Returns ErrPortfolioNotFound when no portfolio has the given ID.
func (r *PortfolioRepository) GetPortfolioOnID(portfolioID string) (model.Portfolio, error) {
	query := `
          SELECT id, name, created_at, updated_at
          FROM portfolio
          WHERE id = ?
      `
	var p model.Portfolio

	err := r.db.QueryRow(query, portfolioID).Scan(
		&p.ID,
		&p.Name,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio table: %w", err)
	}

	p.Holdings, err = r.getHoldings(p.ID)
	if err != nil {
		return model.Portfolio{}, err
	}

	return p, nil
}

// CreatePortfolio inserts a new portfolio row.
func (r *PortfolioRepository) CreatePortfolio(p model.Portfolio) error {
	query := `
          INSERT INTO portfolio (id, name, created_at, updated_at)
          VALUES (?, ?, ?, ?)
      `
	_, err := r.db.Exec(query, p.ID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

// UpdatePortfolio updates a portfolio's mutable fields.
func (r *PortfolioRepository) UpdatePortfolio(p model.Portfolio) error {
	query := `
          UPDATE portfolio
          SET name = ?, updated_at = ?
          WHERE id = ?
      `
	result, err := r.db.Exec(query, p.Name, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}

// DeletePortfolio removes a portfolio; holdings and transactions cascade.
func (r *PortfolioRepository) DeletePortfolio(portfolioID string) error {
	result, err := r.db.Exec("DELETE FROM portfolio WHERE id = ?", portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}

// UpsertHolding sets the held amount for one asset, inserting the row when
// the asset is new to the portfolio. An amount of zero removes the holding.
func (r *PortfolioRepository) UpsertHolding(portfolioID, assetID string, amount float64) error {
	if amount == 0 {
		_, err := r.db.Exec(
			"DELETE FROM holding WHERE portfolio_id = ? AND asset_id = ?",
			portfolioID, assetID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete holding: %w", err)
		}
		return nil
	}

	query := `
          INSERT INTO holding (portfolio_id, asset_id, amount)
          VALUES (?, ?, ?)
          ON CONFLICT (portfolio_id, asset_id) DO UPDATE SET amount = excluded.amount
      `
	_, err := r.db.Exec(query, portfolioID, assetID, amount)
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

// getHoldings loads all holdings for one portfolio.
func (r *PortfolioRepository) getHoldings(portfolioID string) ([]model.AssetHolding, error) {
	query := `
          SELECT asset_id, amount
          FROM holding
          WHERE portfolio_id = ?
          ORDER BY asset_id
      `
	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.AssetHolding{}

	for rows.Next() {
		var h model.AssetHolding

		if err := rows.Scan(&h.AssetID, &h.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}

		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}
