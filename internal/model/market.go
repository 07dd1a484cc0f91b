package model

import "time"

// PricePoint is a single observation in a historical price series.
// TimestampMillis is Unix milliseconds as delivered by the provider.
type PricePoint struct {
	TimestampMillis int64
	Price           float64
}

// Time returns the observation time in UTC.
func (p PricePoint) Time() time.Time {
	return time.UnixMilli(p.TimestampMillis).UTC()
}

// PriceSeries is an ordered (ascending by timestamp) sequence of price points
// for one asset. The provider does not guarantee regular spacing; consumers
// must tolerate gaps.
type PriceSeries []PricePoint

// SpotPrice is the current quote for one asset.
type SpotPrice struct {
	Price         float64
	Change24h     float64
	LastUpdatedAt int64
}

// CatalogEntry is one row of the provider's coin catalog, used for
// symbol-to-identifier resolution.
type CatalogEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// AssetDetails is the flattened detail view of one asset.
type AssetDetails struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Image             string  `json:"image"`
	CurrentPrice      float64 `json:"currentPrice"`
	MarketCap         float64 `json:"marketCap"`
	TotalVolume       float64 `json:"totalVolume"`
	High24h           float64 `json:"high24h"`
	Low24h            float64 `json:"low24h"`
	PriceChange24h    float64 `json:"priceChange24h"`
	PriceChange7d     float64 `json:"priceChange7d"`
	PriceChange30d    float64 `json:"priceChange30d"`
	CirculatingSupply float64 `json:"circulatingSupply"`
	TotalSupply       float64 `json:"totalSupply"`
	MaxSupply         float64 `json:"maxSupply"`
	AllTimeHigh       PriceAt `json:"allTimeHigh"`
	AllTimeLow        PriceAt `json:"allTimeLow"`
	Description       string  `json:"description"`
	Website           string  `json:"website"`
}

// PriceAt pairs a price with the date it was recorded.
type PriceAt struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// TopAsset is one entry of the market-cap ranked asset list.
type TopAsset struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}
