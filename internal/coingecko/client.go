// Package coingecko provides a resilient client for the CoinGecko market-data
// API. All operations share one retry policy: a fixed number of attempts with
// a fixed inter-attempt delay. Fixed delay keeps worst-case latency
// predictable; with the defaults the ceiling is three attempts roughly 5s
// apart.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/apperrors"
	"github.com/cryptoinsight/backend/internal/config"
	"github.com/cryptoinsight/backend/internal/model"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client issues outbound requests to CoinGecko and masks transient failures.
// It holds no mutable state and is safe for concurrent use; callers may issue
// independent operations in parallel.
type Client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	httpClient   *http.Client
	maxAttempts  int
	retryDelay   time.Duration
	logger       *zap.Logger
}

// NewClient creates a CoinGecko client from the provider configuration.
// The base URL is overridable for tests and for the pro tier, which uses a
// different API-key header.
func NewClient(cfg config.CoinGeckoConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	header := "x-cg-demo-api-key"
	if strings.Contains(baseURL, "pro-api.coingecko.com") {
		header = "x-cg-pro-api-key"
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = 120 * time.Second
	}

	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		apiKeyHeader: header,
		httpClient:   &http.Client{Timeout: attemptTimeout},
		maxAttempts:  maxAttempts,
		retryDelay:   retryDelay,
		logger:       logger,
	}
}

// FetchSpotPrices fetches current USD quotes for the given asset identifiers
// in one batched request. The returned map contains at most one entry per
// requested identifier; identifiers unknown to the provider are simply
// absent.
func (c *Client) FetchSpotPrices(ctx context.Context, assetIDs []string) (map[string]model.SpotPrice, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one asset ID is required", apperrors.ErrInvalidAssetID)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(assetIDs, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_last_updated_at", "true")

	var payload map[string]spotPriceEntry
	if err := c.get(ctx, "/simple/price", params, &payload); err != nil {
		return nil, err
	}

	prices := make(map[string]model.SpotPrice, len(payload))
	for id, entry := range payload {
		prices[id] = model.SpotPrice{
			Price:         entry.USD,
			Change24h:     entry.USD24hChange,
			LastUpdatedAt: entry.LastUpdatedAt,
		}
	}
	return prices, nil
}

// FetchHistoricalSeries fetches the daily USD price series for one asset over
// the given number of days ("max" for the full history). Points are returned
// in the provider's order, ascending by timestamp.
func (c *Client) FetchHistoricalSeries(ctx context.Context, assetID, days string) (model.PriceSeries, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", days)

	var payload marketChartResponse
	if err := c.get(ctx, "/coins/"+url.PathEscape(assetID)+"/market_chart", params, &payload); err != nil {
		return nil, err
	}

	series := make(model.PriceSeries, len(payload.Prices))
	for i, pair := range payload.Prices {
		series[i] = model.PricePoint{
			TimestampMillis: int64(pair[0]),
			Price:           pair[1],
		}
	}
	return series, nil
}

// FetchAssetDetails fetches the full metadata object for one asset, with
// localization, tickers, community and developer sections stripped.
func (c *Client) FetchAssetDetails(ctx context.Context, assetID string) (CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("market_data", "true")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")
	params.Set("sparkline", "false")

	var payload CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(assetID), params, &payload); err != nil {
		return CoinDetail{}, err
	}
	return payload, nil
}

// FetchTopAssets fetches the top assets by market capitalization.
func (c *Client) FetchTopAssets(ctx context.Context, limit int) ([]model.TopAsset, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	var payload []model.TopAsset
	if err := c.get(ctx, "/coins/markets", params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchCoinsList fetches the full coin catalog used for symbol resolution.
func (c *Client) FetchCoinsList(ctx context.Context) ([]model.CatalogEntry, error) {
	var payload []model.CatalogEntry
	if err := c.get(ctx, "/coins/list", url.Values{}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// get performs a GET request under the shared retry policy and decodes the
// JSON body into out. Network failures, non-2xx statuses and malformed bodies
// are transient: they are retried up to the attempt limit with the fixed
// delay, then reported as ErrDataUnavailable with the last cause attached.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewConstant(c.retryDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		body, err := c.doOnce(ctx, path, params)
		if err == nil {
			err = decodeFresh(body, out)
		}
		if err != nil {
			c.logger.Warn("coingecko request failed",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", c.maxAttempts),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s after %d attempts: %v", apperrors.ErrDataUnavailable, path, attempt, err)
	}
	return nil
}

// decodeFresh unmarshals data into a new value of out's type and copies it
// over only on success. Unmarshalling straight into out would leave partial
// state behind when a body decodes half-way before failing, and that state
// would survive into the next retry attempt's result.
func decodeFresh(data []byte, out any) error {
	target := reflect.ValueOf(out)
	fresh := reflect.New(target.Type().Elem())
	if err := json.Unmarshal(data, fresh.Interface()); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// doOnce executes a single HTTP attempt and returns the raw response body.
func (c *Client) doOnce(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CryptoInsight/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
