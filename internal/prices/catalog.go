package prices

import "github.com/shopspring/decimal"

// Stock is an entry in the static catalogue offered to clients.
type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Catalog lists the stocks shown on the dashboard.
var Catalog = []Stock{
	{Symbol: "AAPL", Name: "Apple Inc."},
	{Symbol: "MSFT", Name: "Microsoft Corporation"},
	{Symbol: "GOOGL", Name: "Alphabet Inc."},
	{Symbol: "AMZN", Name: "Amazon.com Inc."},
	{Symbol: "TSLA", Name: "Tesla Inc."},
	{Symbol: "META", Name: "Meta Platforms Inc."},
	{Symbol: "NVDA", Name: "NVIDIA Corporation"},
	{Symbol: "NFLX", Name: "Netflix Inc."},
	{Symbol: "ADBE", Name: "Adobe Inc."},
	{Symbol: "INTC", Name: "Intel Corporation"},
}

// openingPrices seed the simulated provider's random walk.
var openingPrices = map[string]decimal.Decimal{
	"AAPL":  decimal.RequireFromString("190.00"),
	"MSFT":  decimal.RequireFromString("410.00"),
	"GOOGL": decimal.RequireFromString("165.00"),
	"AMZN":  decimal.RequireFromString("180.00"),
	"TSLA":  decimal.RequireFromString("240.00"),
	"META":  decimal.RequireFromString("480.00"),
	"NVDA":  decimal.RequireFromString("120.00"),
	"NFLX":  decimal.RequireFromString("620.00"),
	"ADBE":  decimal.RequireFromString("520.00"),
	"INTC":  decimal.RequireFromString("32.00"),
}
