package service

import (
	"math"
	"sort"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/model"
)

// tradingDaysPerYear is the conventional annualization factor for daily
// return statistics.
const tradingDaysPerYear = 252

// DefaultDailyRiskFreeRate is the daily risk-free rate assumed by the Sharpe
// ratio (0.01% per day).
const DefaultDailyRiskFreeRate = 0.0001

// DefaultVaRConfidence is the confidence level for value-at-risk.
const DefaultVaRConfidence = 0.95

// filterFinite returns the subset of values that are neither NaN nor ±Inf.
// Malformed numeric input is dropped before any aggregation, never coerced
// to zero.
func filterFinite(values []float64) []float64 {
	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev is the population (not sample) standard deviation, the
// convention used throughout these metrics.
func populationStdDev(values []float64) float64 {
	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - m) * (v - m)
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

func variance(values []float64) float64 {
	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - m) * (v - m)
	}
	return sumSquares / float64(len(values))
}

func covariance(a, b []float64) float64 {
	meanA := mean(a)
	meanB := mean(b)
	sum := 0.0
	for i := range a {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / float64(len(a))
}

// AnnualizedVolatility returns the population standard deviation of daily
// returns scaled by √252.
func AnnualizedVolatility(returns []float64) (float64, error) {
	usable := filterFinite(returns)
	if len(usable) == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	return populationStdDev(usable) * math.Sqrt(tradingDaysPerYear), nil
}

// SharpeRatio returns (mean − riskFree) / stddev × √252 over daily returns.
// A zero standard deviation makes the ratio undefined and is reported as
// insufficient data rather than ±Inf.
func SharpeRatio(returns []float64, dailyRiskFreeRate float64) (float64, error) {
	usable := filterFinite(returns)
	if len(usable) == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	stdDev := populationStdDev(usable)
	if stdDev == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	return (mean(usable) - dailyRiskFreeRate) / stdDev * math.Sqrt(tradingDaysPerYear), nil
}

// MaxDrawdown simulates compounding a value of 1.0 through each return,
// tracks the running peak and returns the largest peak-to-trough decline as
// a fraction of the peak.
func MaxDrawdown(returns []float64) (float64, error) {
	usable := filterFinite(returns)
	if len(usable) == 0 {
		return 0, apperrors.ErrInsufficientData
	}

	total := 1.0
	peak := math.Inf(-1)
	maxDrawdown := 0.0
	for _, r := range usable {
		total *= 1 + r
		peak = math.Max(peak, total)
		maxDrawdown = math.Max(maxDrawdown, (peak-total)/peak)
	}
	return maxDrawdown, nil
}

// ValueAtRisk sorts daily returns ascending and returns the negation of the
// element at index floor((1−confidence)·n).
func ValueAtRisk(returns []float64, confidence float64) (float64, error) {
	usable := filterFinite(returns)
	if len(usable) == 0 {
		return 0, apperrors.ErrInsufficientData
	}

	sorted := make([]float64, len(usable))
	copy(sorted, usable)
	sort.Float64s(sorted)

	index := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return -sorted[index], nil
}

// BetaToMarket returns covariance(portfolio, market) / variance(market).
// When the series differ in length, the most recent overlapping returns are
// compared. A zero market variance makes beta undefined.
func BetaToMarket(portfolioReturns, marketReturns []float64) (float64, error) {
	p := filterFinite(portfolioReturns)
	m := filterFinite(marketReturns)

	n := len(p)
	if len(m) < n {
		n = len(m)
	}
	if n == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	p = p[len(p)-n:]
	m = m[len(m)-n:]

	marketVariance := variance(m)
	if marketVariance == 0 {
		return 0, apperrors.ErrInsufficientData
	}
	return covariance(p, m) / marketVariance, nil
}

// dayBucket maps a price point to its UTC calendar day (days since epoch).
func dayBucket(p model.PricePoint) int64 {
	return p.Time().Unix() / 86400
}

// dailyPricesByDay reduces a series to one finite price per UTC calendar
// day; the last observation of a day wins.
func dailyPricesByDay(series model.PriceSeries) map[int64]float64 {
	byDay := make(map[int64]float64)
	for _, p := range series {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		byDay[dayBucket(p)] = p.Price
	}
	return byDay
}

// DailyReturns builds the portfolio's daily total-value series and returns
// its day-over-day relative changes.
//
// Series are aligned by explicit UTC calendar day, not by array position:
// providers may return series with differing start days or gaps, and
// positional alignment would silently mix days. On a day where an asset has
// no observation its last known price is carried forward; days before an
// asset's first observation contribute nothing for that asset, and leading
// days where no asset has a price are dropped.
func DailyReturns(holdings []model.AssetHolding, seriesByAsset map[string]model.PriceSeries) []float64 {
	type alignedAsset struct {
		amount float64
		byDay  map[int64]float64
	}

	var assets []alignedAsset
	var minDay, maxDay int64
	first := true
	for _, h := range holdings {
		byDay := dailyPricesByDay(seriesByAsset[h.AssetID])
		if len(byDay) == 0 {
			continue
		}
		assets = append(assets, alignedAsset{amount: h.Amount, byDay: byDay})
		for day := range byDay {
			if first || day < minDay {
				minDay = day
			}
			if first || day > maxDay {
				maxDay = day
			}
			first = false
		}
	}
	if len(assets) == 0 {
		return nil
	}

	lastPrice := make([]float64, len(assets))
	havePrice := make([]bool, len(assets))

	var values []float64
	for day := minDay; day <= maxDay; day++ {
		total := 0.0
		priced := false
		for i, a := range assets {
			if price, ok := a.byDay[day]; ok {
				lastPrice[i] = price
				havePrice[i] = true
			}
			if havePrice[i] {
				total += a.amount * lastPrice[i]
				priced = true
			}
		}
		if !priced && len(values) == 0 {
			continue
		}
		values = append(values, total)
	}

	returns := make([]float64, 0, len(values))
	for d := 1; d < len(values); d++ {
		if values[d-1] == 0 {
			continue
		}
		returns = append(returns, (values[d]-values[d-1])/values[d-1])
	}
	return returns
}

// ReturnsFromSeries computes day-over-day returns of a single asset's price
// series using the same calendar-day bucketing as DailyReturns.
func ReturnsFromSeries(series model.PriceSeries) []float64 {
	return DailyReturns(
		[]model.AssetHolding{{AssetID: "asset", Amount: 1}},
		map[string]model.PriceSeries{"asset": series},
	)
}
