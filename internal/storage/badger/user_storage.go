package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// emailRecord reserves an email address for one user id. Inserting it is
// what enforces email uniqueness.
type emailRecord struct {
	Email  string `badgerhold:"key"`
	UserID string
}

// UserStorage implements interfaces.UserStorage using BadgerDB.
type UserStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewUserStorage creates a credential store backed by BadgerDB.
func NewUserStorage(db *BadgerDB, logger *common.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// GetUserByEmail looks a user up by their (already normalised) email.
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec emailRecord
	if err := s.db.Store().Get(email, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.Errorf(models.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	return s.GetUser(ctx, rec.UserID)
}

// GetUser loads a user by id.
func (s *UserStorage) GetUser(_ context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Store().Get(id, &user); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.Errorf(models.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// CreateUser stores the email reservation, the user and its portfolio in one
// transaction. A concurrent registration of the same email loses with a
// Conflict error.
func (s *UserStorage) CreateUser(_ context.Context, user *models.User, portfolio *models.Portfolio) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badger.Txn) error {
		if err := store.TxInsert(tx, user.Email, &emailRecord{Email: user.Email, UserID: user.ID}); err != nil {
			return err
		}
		if err := store.TxInsert(tx, user.ID, user); err != nil {
			return err
		}
		return store.TxInsert(tx, portfolio.UserID, portfolio)
	})

	switch {
	case err == nil:
		s.logger.Debug().Str("user_id", user.ID).Msg("user created")
		return nil
	case errors.Is(err, badgerhold.ErrKeyExists), errors.Is(err, badger.ErrConflict):
		return models.Errorf(models.KindConflict, "email already exists")
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}
