package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4000,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/papertrade",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
		Auth: AuthConfig{
			TokenTTL: "1h",
		},
		Prices: PricesConfig{
			Provider: "simulated",
			BaseURL:  "https://finnhub.io/api/v1",
			Timeout:  "10s",
			CacheTTL: "1s",
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenFor:     "30s",
			},
		},
		Feed: FeedConfig{
			Interval: "5s",
		},
		Portfolio: PortfolioConfig{
			StartingCash: "10000",
		},
		Seed: SeedConfig{
			UsersFile: "import/users.json",
			Email:     "test@example.com",
			Password:  "password123",
		},
	}
}
