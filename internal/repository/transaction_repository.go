package repository

import (
	"database/sql"
	"fmt"

	"github.com/cryptoinsight/backend/internal/model"
)

// TransactionRepository provides data access methods for the
// portfolio_transaction table.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// AddTransaction inserts a transaction record.
func (r *TransactionRepository) AddTransaction(tx model.Transaction) error {
	query := `
          INSERT INTO portfolio_transaction (id, portfolio_id, asset_id, type, amount, price, date)
          VALUES (?, ?, ?, ?, ?, ?, ?)
      `
	_, err := r.db.Exec(query, tx.ID, tx.PortfolioID, tx.AssetID, string(tx.Type), tx.Amount, tx.Price, tx.Date)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransactions retrieves all transactions for one portfolio, oldest first.
func (r *TransactionRepository) GetTransactions(portfolioID string) ([]model.Transaction, error) {
	query := `
          SELECT id, portfolio_id, asset_id, type, amount, price, date
          FROM portfolio_transaction
          WHERE portfolio_id = ?
          ORDER BY date
      `
	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}

	for rows.Next() {
		var tx model.Transaction
		var txType string

		err := rows.Scan(
			&tx.ID,
			&tx.PortfolioID,
			&tx.AssetID,
			&txType,
			&tx.Amount,
			&tx.Price,
			&tx.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		tx.Type = model.TransactionType(txType)
		transactions = append(transactions, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}
