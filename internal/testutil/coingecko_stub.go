package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/coingecko"
	"github.com/cryptoinsight/backend/internal/config"
	"github.com/cryptoinsight/backend/internal/model"
)

// CoinGeckoStub is a configurable in-process stand-in for the CoinGecko API.
// Populate the exported fields before issuing requests; Calls records per-path
// hit counts for cache assertions.
type CoinGeckoStub struct {
	Server *httptest.Server

	mu         sync.Mutex
	SpotPrices map[string]model.SpotPrice
	Series     map[string]model.PriceSeries
	Catalog    []model.CatalogEntry
	TopAssets  []model.TopAsset
	// FailStatus, when non-zero, makes every request fail with that status.
	FailStatus int

	calls map[string]int
}

// NewCoinGeckoStub starts a stub server. It is shut down when the test ends.
func NewCoinGeckoStub(t *testing.T) *CoinGeckoStub {
	t.Helper()

	stub := &CoinGeckoStub{
		SpotPrices: map[string]model.SpotPrice{},
		Series:     map[string]model.PriceSeries{},
		// Catalog defaults cover the coin IDs the fixtures trade in, so
		// buy-side catalog validation passes without per-test setup.
		Catalog: []model.CatalogEntry{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		},
		calls: map[string]int{},
	}
	stub.Server = httptest.NewServer(http.HandlerFunc(stub.handle))
	t.Cleanup(stub.Server.Close)
	return stub
}

// Client returns a CoinGecko client pointed at the stub with fast retries.
func (s *CoinGeckoStub) Client() *coingecko.Client {
	return coingecko.NewClient(config.CoinGeckoConfig{
		BaseURL:        s.Server.URL,
		APIKey:         "test-key",
		MaxAttempts:    2,
		RetryDelay:     time.Millisecond,
		AttemptTimeout: 5 * time.Second,
	}, zap.NewNop())
}

// Calls returns how many requests hit the given path.
func (s *CoinGeckoStub) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *CoinGeckoStub) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[r.URL.Path]++

	if s.FailStatus != 0 {
		w.WriteHeader(s.FailStatus)
		return
	}

	switch {
	case r.URL.Path == "/simple/price":
		payload := map[string]map[string]any{}
		for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
			if spot, ok := s.SpotPrices[id]; ok {
				payload[id] = map[string]any{
					"usd":             spot.Price,
					"usd_24h_change":  spot.Change24h,
					"last_updated_at": spot.LastUpdatedAt,
				}
			}
		}
		writeJSON(w, payload)

	case r.URL.Path == "/coins/list":
		writeJSON(w, s.Catalog)

	case r.URL.Path == "/coins/markets":
		writeJSON(w, s.TopAssets)

	case strings.HasSuffix(r.URL.Path, "/market_chart"):
		assetID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/coins/"), "/market_chart")
		series, ok := s.Series[assetID]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"coin not found"}`)
			return
		}
		prices := make([][2]float64, len(series))
		for i, p := range series {
			prices[i] = [2]float64{float64(p.TimestampMillis), p.Price}
		}
		writeJSON(w, map[string]any{"prices": prices, "market_caps": [][2]float64{}, "total_volumes": [][2]float64{}})

	case strings.HasPrefix(r.URL.Path, "/coins/"):
		assetID := strings.TrimPrefix(r.URL.Path, "/coins/")
		spot := s.SpotPrices[assetID]
		writeJSON(w, map[string]any{
			"id":     assetID,
			"symbol": assetID,
			"name":   assetID,
			"market_data": map[string]any{
				"current_price": map[string]float64{"usd": spot.Price},
			},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
