package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cryptoinsight/backend/internal/api/handlers"
	"github.com/cryptoinsight/backend/internal/model"
	"github.com/cryptoinsight/backend/internal/testutil"
)

// TestPortfolioHandler_Portfolios tests the GET /api/portfolio endpoint.
//
// WHY: This is the primary endpoint for listing portfolios. The frontend
// depends on this returning correct data with proper HTTP status codes and
// JSON formatting. Testing ensures API contract stability.
func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("GET /api/portfolio returns 200 with empty array", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		// Create HTTP request
		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Portfolios(w, req)

		// Assert HTTP status
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		contentType := w.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
		}

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 0 {
			t.Errorf("Expected empty array, got %d items", len(response))
		}
	})

	t.Run("GET /api/portfolio returns all portfolios", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		testutil.CreatePortfolio(t, db, "Portfolio One")
		testutil.CreatePortfolio(t, db, "Portfolio Two")

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
		w := httptest.NewRecorder()

		handler.Portfolios(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		var response []model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Errorf("Expected 2 portfolios, got %d", len(response))
		}
	})
}

// TestPortfolioHandler_CreatePortfolio tests the POST /api/portfolio endpoint.
func TestPortfolioHandler_CreatePortfolio(t *testing.T) {
	t.Run("POST /api/portfolio creates and returns 201", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		body := strings.NewReader(`{"name":"My Crypto"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/", body)
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d", w.Code)
		}

		var response model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Name != "My Crypto" {
			t.Errorf("Expected name 'My Crypto', got '%s'", response.Name)
		}
		if response.ID == "" {
			t.Error("Expected a generated portfolio ID")
		}
	})

	t.Run("POST /api/portfolio with empty name returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		body := strings.NewReader(`{"name":"  "}`)
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/", body)
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("POST /api/portfolio with malformed body returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		body := strings.NewReader(`{not json`)
		req := httptest.NewRequest(http.MethodPost, "/api/portfolio/", body)
		w := httptest.NewRecorder()

		handler.CreatePortfolio(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_GetPortfolio tests the GET /api/portfolio/{uuid} endpoint.
func TestPortfolioHandler_GetPortfolio(t *testing.T) {
	t.Run("GET returns the portfolio with holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Holdings Test")
		testutil.AddHolding(t, db, p.ID, "bitcoin", 1.5)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+p.ID, nil, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.GetPortfolio(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		var response model.Portfolio
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response.Holdings) != 1 || response.Holdings[0].AssetID != "bitcoin" {
			t.Errorf("Expected a bitcoin holding, got %+v", response.Holdings)
		}
	})

	t.Run("GET unknown portfolio returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		missing := "4f2c7f3a-9a1e-4f5c-8a5f-000000000000"
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+missing, nil, map[string]string{"uuid": missing})
		w := httptest.NewRecorder()

		handler.GetPortfolio(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_Value tests the GET /api/portfolio/{uuid}/value endpoint.
func TestPortfolioHandler_Value(t *testing.T) {
	t.Run("GET returns the spot valuation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		stub := testutil.NewCoinGeckoStub(t)
		stub.SpotPrices["bitcoin"] = model.SpotPrice{Price: 50000}
		svc := testutil.NewTestPortfolioService(t, db, stub)
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Worth")
		testutil.AddHolding(t, db, p.ID, "bitcoin", 2)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+p.ID+"/value", nil, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.Value(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var response handlers.PortfolioValueResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.TotalValue != 100000 {
			t.Errorf("Expected totalValue 100000, got %v", response.TotalValue)
		}
	})

	t.Run("GET unknown portfolio returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		missing := "4f2c7f3a-9a1e-4f5c-8a5f-000000000000"
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/portfolio/"+missing+"/value", nil, map[string]string{"uuid": missing})
		w := httptest.NewRecorder()

		handler.Value(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_CreateTransaction tests the POST
// /api/portfolio/{uuid}/transactions endpoint.
func TestPortfolioHandler_CreateTransaction(t *testing.T) {
	t.Run("POST buy returns 201 and updates holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Buyer")

		body := strings.NewReader(`{"coinId":"bitcoin","type":"buy","amount":0.5,"price":60000}`)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/portfolio/"+p.ID+"/transactions", body, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var response model.Transaction
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Type != model.TransactionBuy || response.Amount != 0.5 {
			t.Errorf("Expected recorded buy of 0.5, got %+v", response)
		}
	})

	t.Run("POST buy of an unlisted coin returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Gullible")

		body := strings.NewReader(`{"coinId":"not-a-real-coin","type":"buy","amount":1,"price":10}`)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/portfolio/"+p.ID+"/transactions", body, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("POST sell of unheld asset returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Seller")

		body := strings.NewReader(`{"coinId":"bitcoin","type":"sell","amount":1,"price":60000}`)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/portfolio/"+p.ID+"/transactions", body, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("POST with invalid type returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Typo")

		body := strings.NewReader(`{"coinId":"bitcoin","type":"transfer","amount":1,"price":60000}`)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/portfolio/"+p.ID+"/transactions", body, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_Rebalance tests the POST
// /api/portfolio/{uuid}/rebalance endpoint.
func TestPortfolioHandler_Rebalance(t *testing.T) {
	t.Run("POST with percentages not summing to 100 returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db, testutil.NewCoinGeckoStub(t))
		handler := handlers.NewPortfolioHandler(svc)

		p := testutil.CreatePortfolio(t, db, "Skewed")

		body := strings.NewReader(`{"targetAllocation":{"bitcoin":70,"ethereum":20}}`)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/portfolio/"+p.ID+"/rebalance", body, map[string]string{"uuid": p.ID})
		w := httptest.NewRecorder()

		handler.Rebalance(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}
