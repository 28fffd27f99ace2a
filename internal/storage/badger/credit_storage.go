package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CreditStorage implements the CreditStorage interface for Badger
type CreditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCreditStorage creates a new CreditStorage instance
func NewCreditStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CreditStorage {
	return &CreditStorage{
		db:     db,
		logger: logger,
	}
}

// GetAccount returns the owner's account, or nil when none exists
func (s *CreditStorage) GetAccount(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := s.db.Store().Get(ownerID, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credit account: %w", err)
	}
	return &account, nil
}

func (s *CreditStorage) SaveAccount(ctx context.Context, account *models.CreditAccount) error {
	if account == nil || account.OwnerID == "" {
		return fmt.Errorf("owner ID is required")
	}
	if err := s.db.Store().Upsert(account.OwnerID, account); err != nil {
		return fmt.Errorf("failed to save credit account: %w", err)
	}
	return nil
}
