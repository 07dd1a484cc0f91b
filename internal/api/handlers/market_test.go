package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cryptoinsight/backend/internal/api/handlers"
	"github.com/cryptoinsight/backend/internal/model"
	"github.com/cryptoinsight/backend/internal/testutil"
)

// TestMarketHandler_Prices tests the GET /api/crypto/prices endpoint.
func TestMarketHandler_Prices(t *testing.T) {
	t.Run("GET with ids returns prices", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.SpotPrices["bitcoin"] = model.SpotPrice{Price: 60000, Change24h: 1.5}
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/crypto/prices", map[string]string{"ids": "bitcoin"})
		w := httptest.NewRecorder()

		handler.Prices(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]model.SpotPrice
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response["bitcoin"].Price != 60000 {
			t.Errorf("Expected bitcoin at 60000, got %v", response["bitcoin"].Price)
		}
	})

	t.Run("GET without ids returns 400", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := httptest.NewRequest(http.MethodGet, "/api/crypto/prices", nil)
		w := httptest.NewRecorder()

		handler.Prices(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("GET during provider outage returns 502", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.FailStatus = http.StatusInternalServerError
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/crypto/prices", map[string]string{"ids": "bitcoin"})
		w := httptest.NewRecorder()

		handler.Prices(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected status 502, got %d", w.Code)
		}
	})
}

// TestMarketHandler_History tests the GET /api/crypto/history/{coinId} endpoint.
func TestMarketHandler_History(t *testing.T) {
	t.Run("GET returns the price series", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.Series["bitcoin"] = testutil.DailySeries(time.Now().UTC(), 100, 110, 120)
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/crypto/history/bitcoin", nil, map[string]string{"coinId": "bitcoin"})
		w := httptest.NewRecorder()

		handler.History(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.PriceSeries
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 3 {
			t.Errorf("Expected 3 price points, got %d", len(response))
		}
	})
}

// TestMarketHandler_Top tests the GET /api/crypto/top endpoint.
func TestMarketHandler_Top(t *testing.T) {
	t.Run("GET with invalid limit returns 400", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/crypto/top", map[string]string{"limit": "-3"})
		w := httptest.NewRecorder()

		handler.Top(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("GET returns the listing", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.TopAssets = []model.TopAsset{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		}
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/crypto/top", map[string]string{"limit": "2"})
		w := httptest.NewRecorder()

		handler.Top(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []model.TopAsset
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Errorf("Expected 2 assets, got %d", len(response))
		}
	})
}

// TestMarketHandler_Resolve tests the GET /api/crypto/resolve/{symbol} endpoint.
//
// WHY: symbol resolution backs every user-facing lookup by ticker. The
// contract is a 404 for unknown symbols, not an empty 200.
func TestMarketHandler_Resolve(t *testing.T) {
	t.Run("GET resolves a known symbol", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.Catalog = []model.CatalogEntry{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		}
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/crypto/resolve/BTC", nil, map[string]string{"symbol": "BTC"})
		w := httptest.NewRecorder()

		handler.Resolve(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response handlers.ResolveResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.CoinID != "bitcoin" {
			t.Errorf("Expected coin ID 'bitcoin', got '%s'", response.CoinID)
		}
	})

	t.Run("GET unknown symbol returns 404", func(t *testing.T) {
		stub := testutil.NewCoinGeckoStub(t)
		stub.Catalog = []model.CatalogEntry{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		}
		handler := handlers.NewMarketHandler(testutil.NewTestMarketService(t, stub), testutil.NewTestResolver(t, stub))

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/crypto/resolve/doge", nil, map[string]string{"symbol": "doge"})
		w := httptest.NewRecorder()

		handler.Resolve(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}
