package badger

import (
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db         *BadgerDB
	users      *UserStorage
	portfolios *PortfolioStorage
	kv         *KVStorage
	logger     *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		db:         db,
		users:      NewUserStorage(db, logger),
		portfolios: NewPortfolioStorage(db, logger),
		kv:         NewKVStorage(db, logger),
		logger:     logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return m, nil
}

// UserStorage returns the credential store.
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.users
}

// PortfolioStorage returns the portfolio and trade log store.
func (m *Manager) PortfolioStorage() interfaces.PortfolioStorage {
	return m.portfolios
}

// KeyValueStorage returns the KeyValue storage interface.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
