package apperrors

import "errors"

// Provider and analytics errors cover the market-data acquisition pipeline.
// They form the error taxonomy shared by the CoinGecko client, the symbol
// resolver and the analytics service.
var (
	// ErrDataUnavailable indicates that the market-data provider could not be
	// reached after all retry attempts were exhausted. The underlying cause is
	// attached via error wrapping for diagnostics.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrUnknownSymbol indicates that a ticker symbol has no entry in the
	// provider's coin catalog. This is a client-input error and is never retried.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrUnknownAsset indicates that an asset identifier has no entry in the
	// provider's coin catalog. The counterpart of ErrUnknownSymbol for
	// canonical IDs.
	ErrUnknownAsset = errors.New("unknown asset id")

	// ErrInsufficientData indicates that an analytics computation had zero
	// usable data points left after filtering. It is distinct from
	// ErrDataUnavailable: the provider responded, but the data cannot support
	// the requested metric.
	ErrInsufficientData = errors.New("insufficient data to calculate")
)

// Domain entity errors represent missing entities in the system.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that a portfolio does not hold the given asset.
	ErrAssetNotFound = errors.New("asset not found in portfolio")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInsufficientBalance indicates that a sell transaction cannot be
	// completed because the portfolio does not hold enough of the asset.
	ErrInsufficientBalance = errors.New("insufficient balance for sale")

	// ErrSellUnheldAsset indicates a sell of an asset the portfolio does not hold.
	ErrSellUnheldAsset = errors.New("cannot sell an asset that is not in the portfolio")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// Validation errors for required fields
	ErrInvalidPortfolioID      = errors.New("portfolio ID is required")
	ErrInvalidAssetID          = errors.New("asset ID is required")
	ErrInvalidSymbol           = errors.New("symbol is required")
	ErrInvalidTransactionType  = errors.New("transaction type must be either buy or sell")
	ErrInvalidTargetAllocation = errors.New("target allocation is required")
)
