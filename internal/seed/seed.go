// Package seed creates initial user accounts. It is run explicitly by an
// operator (papertrade-seed), never as part of server start-up, and is safe
// to run repeatedly.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/models"
)

const seedRetryAttempts = 3

// seedRetryDelay is a var so tests can shorten it.
var seedRetryDelay = 2 * time.Second

// User is one account to create.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// usersFile is the JSON structure for the users seed file.
type usersFile struct {
	Users []User `json:"users"`
}

// Registrar creates an account with its starting portfolio.
type Registrar interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

// Result counts what a seed run did.
type Result struct {
	Created  int
	Existing int
}

// Run seeds the users from cfg.UsersFile when it exists, otherwise the single
// default account cfg.Email / cfg.Password.
func Run(ctx context.Context, reg Registrar, cfg *config.SeedConfig, logger *common.Logger) (Result, error) {
	users := []User{{Email: cfg.Email, Password: cfg.Password}}

	if path := findUsersFile(cfg.UsersFile); path != "" {
		loaded, err := loadUsersFile(path)
		if err != nil {
			return Result{}, err
		}
		logger.Info().Str("path", path).Int("users", len(loaded)).Msg("seed: loaded users file")
		users = loaded
	} else {
		logger.Info().Str("email", cfg.Email).Msg("seed: no users file, seeding default user")
	}

	return Users(ctx, reg, users, logger)
}

// Users creates each user that does not exist yet. Users already registered
// are counted and left untouched.
func Users(ctx context.Context, reg Registrar, users []User, logger *common.Logger) (Result, error) {
	var res Result
	for _, u := range users {
		created, err := seedWithRetry(ctx, reg, u, logger)
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}
	}

	logger.Info().
		Int("created", res.Created).
		Int("existing", res.Existing).
		Msg("seed: complete")
	return res, nil
}

// seedWithRetry registers u, retrying storage failures. Domain errors other
// than an existing account are returned immediately.
func seedWithRetry(ctx context.Context, reg Registrar, u User, logger *common.Logger) (bool, error) {
	var err error
	for attempt := 1; attempt <= seedRetryAttempts; attempt++ {
		_, err = reg.Register(ctx, u.Email, u.Password)
		switch {
		case err == nil:
			logger.Info().Str("email", u.Email).Msg("seed: user created")
			return true, nil
		case errors.Is(err, models.ErrConflict):
			logger.Debug().Str("email", u.Email).Msg("seed: user already exists, skipping")
			return false, nil
		case models.KindOf(err) != "":
			return false, err
		}

		logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", seedRetryAttempts).
			Str("error", err.Error()).
			Msg("seed: failed to create user, retrying")
		if attempt < seedRetryAttempts {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(seedRetryDelay):
			}
		}
	}
	return false, err
}

// findUsersFile resolves name relative to the executable directory first,
// then the current working directory. Absolute paths are used as given.
func findUsersFile(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name
		}
		return ""
	}

	// Try binary-relative path first
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Fall back to CWD
	if _, err := os.Stat(name); err == nil {
		return name
	}

	return ""
}

// loadUsersFile reads and parses the users JSON file.
func loadUsersFile(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var f usersFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	return f.Users, nil
}
