// Command papertrade-seed creates the initial user accounts. Run it once
// against the same storage the server uses (while the server is stopped,
// since badger holds an exclusive lock). Running it again is harmless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bobmcallan/papertrade/internal/auth"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/seed"
	"github.com/bobmcallan/papertrade/internal/storage"
)

type configPaths []string

func (c *configPaths) String() string { return fmt.Sprintf("%v", *c) }

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	usersFile   = flag.String("users", "", "Users JSON file (overrides seed.users_file)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if len(configFiles) == 0 {
		configFiles = config.Discover()
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *usersFile != "" {
		cfg.Seed.UsersFile = *usersFile
	}

	logger := common.NewLoggerFromConfig(common.LoggingConfig{
		Level:   cfg.Logging.Level,
		Outputs: []string{"console"},
	})

	if err := run(cfg, logger); err != nil {
		logger.Error().Str("error", err.Error()).Msg("seed failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *common.Logger) error {
	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	// Seeding never issues tokens, so no signing secret is needed.
	accounts := auth.NewService(store.UserStorage(), auth.NewTokenIssuer(nil, 0), cfg.Portfolio.GetStartingCash(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := seed.Run(ctx, accounts, &cfg.Seed, logger)
	if err != nil {
		return err
	}
	fmt.Printf("seeded: %d created, %d already present\n", res.Created, res.Existing)
	return nil
}
