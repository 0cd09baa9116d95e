package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

const minPasswordLength = 6

// Service registers users and logs them in.
type Service struct {
	users        interfaces.UserStorage
	tokens       *TokenIssuer
	startingCash decimal.Decimal
	logger       *common.Logger
}

// NewService creates the account service. New portfolios get startingCash.
func NewService(users interfaces.UserStorage, tokens *TokenIssuer, startingCash decimal.Decimal, logger *common.Logger) *Service {
	return &Service{
		users:        users,
		tokens:       tokens,
		startingCash: startingCash,
		logger:       logger,
	}
}

// NormalizeEmail trims and lower-cases email and checks it parses as an
// address.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", models.Errorf(models.KindValidation, "email is required")
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return "", models.Errorf(models.KindValidation, "invalid email %q", email)
	}
	return e, nil
}

// Register creates a user and its starting portfolio. A taken email is a
// Conflict error.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	e, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, models.Errorf(models.KindValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        e,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	portfolio := models.NewPortfolio(user.ID, s.startingCash)

	if err := s.users.CreateUser(ctx, user, portfolio); err != nil {
		if models.KindOf(err) == models.KindConflict {
			return nil, models.Errorf(models.KindConflict, "email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	return user, nil
}

// checkPassword is swapped in tests.
var checkPassword = CheckPassword

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	invalid := models.Errorf(models.KindAuth, "invalid credentials")

	e, err := NormalizeEmail(email)
	if err != nil {
		checkPassword(dummyHash(), password)
		return "", invalid
	}

	user, err := s.users.GetUserByEmail(ctx, e)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			checkPassword(dummyHash(), password)
			return "", invalid
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		s.logger.Debug().Str("email", e).Msg("Login rejected")
		return "", invalid
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	return token, nil
}

// Authenticate resolves a bearer token to the user id it was issued for.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}
