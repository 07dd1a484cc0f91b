package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/model"
	"github.com/cryptoinsight/backend/internal/service"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// dayPoint builds a price point on the given UTC day offset from a fixed epoch.
func dayPoint(day int, price float64) model.PricePoint {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return model.PricePoint{
		TimestampMillis: base.AddDate(0, 0, day).UnixMilli(),
		Price:           price,
	}
}

// TestMaxDrawdown tests the peak-to-trough decline calculation.
//
// WHY: drawdown is the headline downside metric; the compounding path and
// the peak tracking are easy to get subtly wrong.
func TestMaxDrawdown(t *testing.T) {
	t.Run("known compounding path", func(t *testing.T) {
		// Path: 1.1, 0.88, 0.968; worst decline is (1.1-0.88)/1.1 = 0.2.
		got, err := service.MaxDrawdown([]float64{0.1, -0.2, 0.1})
		if err != nil {
			t.Fatalf("MaxDrawdown() returned unexpected error: %v", err)
		}
		if !almostEqual(got, 0.2) {
			t.Errorf("expected drawdown 0.2, got %v", got)
		}
	})

	t.Run("monotonic gains have zero drawdown", func(t *testing.T) {
		got, err := service.MaxDrawdown([]float64{0.01, 0.02, 0.03})
		if err != nil {
			t.Fatalf("MaxDrawdown() returned unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("expected drawdown 0, got %v", got)
		}
	})

	t.Run("empty returns are insufficient data", func(t *testing.T) {
		_, err := service.MaxDrawdown(nil)
		if !errors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("NaN returns are filtered, not propagated", func(t *testing.T) {
		got, err := service.MaxDrawdown([]float64{0.1, math.NaN(), -0.2, 0.1})
		if err != nil {
			t.Fatalf("MaxDrawdown() returned unexpected error: %v", err)
		}
		if math.IsNaN(got) {
			t.Error("NaN leaked into drawdown")
		}
		if !almostEqual(got, 0.2) {
			t.Errorf("expected drawdown 0.2 after filtering, got %v", got)
		}
	})
}

// TestValueAtRisk tests the historical-simulation VaR index selection.
func TestValueAtRisk(t *testing.T) {
	t.Run("picks index floor((1-confidence)*n)", func(t *testing.T) {
		// 100 ascending returns: -0.50, -0.49, ..., 0.49.
		returns := make([]float64, 100)
		for i := range returns {
			returns[i] = float64(i-50) / 100
		}

		got, err := service.ValueAtRisk(returns, 0.95)
		if err != nil {
			t.Fatalf("ValueAtRisk() returned unexpected error: %v", err)
		}
		// floor(0.05*100) = 5, so the element at index 5 (-0.45), negated.
		if !almostEqual(got, 0.45) {
			t.Errorf("expected VaR 0.45, got %v", got)
		}
	})

	t.Run("input order does not matter", func(t *testing.T) {
		shuffled := []float64{0.02, -0.03, 0.01, -0.01, 0.0}
		got, err := service.ValueAtRisk(shuffled, 0.95)
		if err != nil {
			t.Fatalf("ValueAtRisk() returned unexpected error: %v", err)
		}
		// floor(0.05*5) = 0: the smallest return, negated.
		if !almostEqual(got, 0.03) {
			t.Errorf("expected VaR 0.03, got %v", got)
		}
	})

	t.Run("empty returns are insufficient data", func(t *testing.T) {
		_, err := service.ValueAtRisk(nil, 0.95)
		if !errors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})
}

// TestAnnualizedVolatility tests the population-stddev convention.
func TestAnnualizedVolatility(t *testing.T) {
	t.Run("known series", func(t *testing.T) {
		// Population stddev of {0.01, -0.01} is 0.01.
		got, err := service.AnnualizedVolatility([]float64{0.01, -0.01})
		if err != nil {
			t.Fatalf("AnnualizedVolatility() returned unexpected error: %v", err)
		}
		if !almostEqual(got, 0.01*math.Sqrt(252)) {
			t.Errorf("expected %v, got %v", 0.01*math.Sqrt(252), got)
		}
	})

	t.Run("constant returns have zero volatility", func(t *testing.T) {
		got, err := service.AnnualizedVolatility([]float64{0.01, 0.01, 0.01})
		if err != nil {
			t.Fatalf("AnnualizedVolatility() returned unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}

// TestSharpeRatio tests risk-adjusted return, including the undefined case.
func TestSharpeRatio(t *testing.T) {
	t.Run("known series", func(t *testing.T) {
		returns := []float64{0.02, 0.0}
		// mean 0.01, population stddev 0.01.
		want := (0.01 - 0.0001) / 0.01 * math.Sqrt(252)

		got, err := service.SharpeRatio(returns, service.DefaultDailyRiskFreeRate)
		if err != nil {
			t.Fatalf("SharpeRatio() returned unexpected error: %v", err)
		}
		if !almostEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("zero stddev is insufficient data, not Inf", func(t *testing.T) {
		_, err := service.SharpeRatio([]float64{0.01, 0.01}, service.DefaultDailyRiskFreeRate)
		if !errors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})
}

// TestBetaToMarket tests covariance-over-variance beta.
func TestBetaToMarket(t *testing.T) {
	t.Run("identical series have beta 1", func(t *testing.T) {
		returns := []float64{0.01, -0.02, 0.03, 0.0}
		got, err := service.BetaToMarket(returns, returns)
		if err != nil {
			t.Fatalf("BetaToMarket() returned unexpected error: %v", err)
		}
		if !almostEqual(got, 1.0) {
			t.Errorf("expected beta 1, got %v", got)
		}
	})

	t.Run("scaled series scale beta", func(t *testing.T) {
		market := []float64{0.01, -0.02, 0.03, 0.0}
		portfolio := make([]float64, len(market))
		for i, r := range market {
			portfolio[i] = 2 * r
		}

		got, err := service.BetaToMarket(portfolio, market)
		if err != nil {
			t.Fatalf("BetaToMarket() returned unexpected error: %v", err)
		}
		if !almostEqual(got, 2.0) {
			t.Errorf("expected beta 2, got %v", got)
		}
	})

	t.Run("flat market is insufficient data", func(t *testing.T) {
		_, err := service.BetaToMarket([]float64{0.01, 0.02}, []float64{0.0, 0.0})
		if !errors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("length mismatch compares most recent overlap", func(t *testing.T) {
		market := []float64{0.5, 0.01, -0.02, 0.03}
		portfolio := []float64{0.01, -0.02, 0.03}

		got, err := service.BetaToMarket(portfolio, market)
		if err != nil {
			t.Fatalf("BetaToMarket() returned unexpected error: %v", err)
		}
		if !almostEqual(got, 1.0) {
			t.Errorf("expected beta 1 on overlapping tail, got %v", got)
		}
	})
}

// TestDailyReturns tests the calendar-day alignment of multi-asset series.
//
// WHY: aligning by array position silently mixes days when providers return
// series with differing start dates or gaps. Alignment here is by explicit
// UTC day bucket with carry-forward, and that behavior must hold.
func TestDailyReturns(t *testing.T) {
	t.Run("single asset day-over-day returns", func(t *testing.T) {
		series := model.PriceSeries{dayPoint(0, 100), dayPoint(1, 110), dayPoint(2, 121)}
		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 1}},
			map[string]model.PriceSeries{"x": series},
		)

		want := []float64{0.1, 0.1}
		if len(got) != len(want) {
			t.Fatalf("expected %d returns, got %d", len(want), len(got))
		}
		for i := range want {
			if !almostEqual(got[i], want[i]) {
				t.Errorf("return[%d]: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("holding amounts weight the value series", func(t *testing.T) {
		series := model.PriceSeries{dayPoint(0, 100), dayPoint(1, 110)}
		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 3}},
			map[string]model.PriceSeries{"x": series},
		)

		// Scaling the whole series does not change relative returns.
		if len(got) != 1 || !almostEqual(got[0], 0.1) {
			t.Errorf("expected [0.1], got %v", got)
		}
	})

	t.Run("gap days carry the last known price forward", func(t *testing.T) {
		// Day 1 is missing; its value holds at 100, so returns are 0 then 0.21.
		series := model.PriceSeries{dayPoint(0, 100), dayPoint(2, 121)}
		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 1}},
			map[string]model.PriceSeries{"x": series},
		)

		want := []float64{0.0, 0.21}
		if len(got) != len(want) {
			t.Fatalf("expected %d returns, got %d", len(want), len(got))
		}
		for i := range want {
			if !almostEqual(got[i], want[i]) {
				t.Errorf("return[%d]: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("assets with differing start days align by date", func(t *testing.T) {
		// x is priced from day 0, y only from day 1. Day 0 value is 10;
		// day 1 jumps to 20 when y appears; day 2 holds.
		x := model.PriceSeries{dayPoint(0, 10), dayPoint(1, 10), dayPoint(2, 10)}
		y := model.PriceSeries{dayPoint(1, 5), dayPoint(2, 5)}

		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 1}, {AssetID: "y", Amount: 2}},
			map[string]model.PriceSeries{"x": x, "y": y},
		)

		want := []float64{1.0, 0.0}
		if len(got) != len(want) {
			t.Fatalf("expected %d returns, got %d", len(want), len(got))
		}
		for i := range want {
			if !almostEqual(got[i], want[i]) {
				t.Errorf("return[%d]: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("non-finite prices are dropped before bucketing", func(t *testing.T) {
		series := model.PriceSeries{
			dayPoint(0, 100),
			{TimestampMillis: dayPoint(1, 0).TimestampMillis, Price: math.NaN()},
			dayPoint(2, 121),
		}
		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 1}},
			map[string]model.PriceSeries{"x": series},
		)

		for _, r := range got {
			if math.IsNaN(r) || math.IsInf(r, 0) {
				t.Fatalf("non-finite return leaked: %v", got)
			}
		}
	})

	t.Run("no usable series yields no returns", func(t *testing.T) {
		got := service.DailyReturns(
			[]model.AssetHolding{{AssetID: "x", Amount: 1}},
			map[string]model.PriceSeries{},
		)
		if len(got) != 0 {
			t.Errorf("expected no returns, got %v", got)
		}
	})
}

// TestValuation tests the missing-price exclusion rule.
func TestValuation(t *testing.T) {
	holdings := []model.AssetHolding{
		{AssetID: "bitcoin", Amount: 2},
		{AssetID: "ethereum", Amount: 10},
	}

	t.Run("sums amount times price", func(t *testing.T) {
		prices := map[string]model.SpotPrice{
			"bitcoin":  {Price: 50000},
			"ethereum": {Price: 3000},
		}
		if got := service.Valuation(holdings, prices); !almostEqual(got, 130000) {
			t.Errorf("expected 130000, got %v", got)
		}
	})

	t.Run("missing price is excluded, not zero-filled", func(t *testing.T) {
		prices := map[string]model.SpotPrice{"bitcoin": {Price: 50000}}
		if got := service.Valuation(holdings, prices); !almostEqual(got, 100000) {
			t.Errorf("expected 100000, got %v", got)
		}
	})

	t.Run("non-finite price is excluded", func(t *testing.T) {
		prices := map[string]model.SpotPrice{
			"bitcoin":  {Price: math.NaN()},
			"ethereum": {Price: 3000},
		}
		if got := service.Valuation(holdings, prices); !almostEqual(got, 30000) {
			t.Errorf("expected 30000, got %v", got)
		}
	})
}
