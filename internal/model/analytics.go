package model

// AssetPerformance is the change in the value of one holding over a
// timeframe window.
type AssetPerformance struct {
	AssetID          string  `json:"assetId"`
	StartValue       float64 `json:"startValue"`
	EndValue         float64 `json:"endValue"`
	Change           float64 `json:"change"`
	ChangePercentage float64 `json:"changePercentage"`
}

// PortfolioPerformance aggregates per-asset performance over a timeframe.
// StartValue and EndValue sum only holdings with usable price data; assets
// with insufficient data are excluded from the aggregate, not zero-filled.
type PortfolioPerformance struct {
	Timeframe         string             `json:"timeframe"`
	StartValue        float64            `json:"startValue"`
	EndValue          float64            `json:"endValue"`
	Change            float64            `json:"change"`
	ChangePercentage  float64            `json:"changePercentage"`
	AssetPerformances []AssetPerformance `json:"assetPerformances"`
}

// PortfolioAnalytics holds annualized return statistics derived from a
// portfolio's daily-return series.
type PortfolioAnalytics struct {
	AverageReturn float64 `json:"averageReturn"`
	Volatility    float64 `json:"volatility"`
	SharpeRatio   float64 `json:"sharpeRatio"`
	MaxDrawdown   float64 `json:"maxDrawdown"`
}

// RiskAssessment holds downside-risk metrics for a portfolio.
type RiskAssessment struct {
	Volatility   float64 `json:"volatility"`
	ValueAtRisk  float64 `json:"valueAtRisk"`
	BetaToMarket float64 `json:"betaToMarket"`
}

// AssetAllocation is one holding's share of the portfolio's current value.
// A missing spot price values the holding at 0 here; this is the one place
// that rule applies.
type AssetAllocation struct {
	AssetID    string  `json:"coinId"`
	Amount     float64 `json:"amount"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// RebalanceSuggestion describes the adjustment needed to move one holding
// from its current share of the portfolio to a target share.
type RebalanceSuggestion struct {
	AssetID           string  `json:"coinId"`
	CurrentPercentage float64 `json:"currentPercentage"`
	TargetPercentage  float64 `json:"targetPercentage"`
	AmountChange      float64 `json:"amountChange"`
}
