package credits

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Service implements CreditLedger over persistent credit storage. Accounts
// are seeded with the configured initial balance the first time an owner is
// seen. Per-owner locks serialize reserve/grant so balances never go negative.
type Service struct {
	storage interfaces.CreditStorage
	logger  arbor.ILogger
	config  *common.CreditsConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a credit ledger backed by the given storage
func NewService(storage interfaces.CreditStorage, config *common.CreditsConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		config:  config,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) ownerLock(ownerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[ownerID] = lock
	}
	return lock
}

func (s *Service) loadOrSeed(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	account, err := s.storage.GetAccount(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	account = &models.CreditAccount{
		OwnerID:   ownerID,
		Balance:   s.config.InitialBalance,
		UpdatedAt: time.Now(),
	}
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to seed credit account: %w", err)
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Int("balance", account.Balance).
		Msg("Seeded credit account")

	return account, nil
}

// Reserve atomically deducts cost from the owner's balance. When the balance
// is insufficient no deduction happens and ok is false.
func (s *Service) Reserve(ctx context.Context, ownerID string, cost int) (int, bool, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.loadOrSeed(ctx, ownerID)
	if err != nil {
		return 0, false, err
	}

	if account.Balance < cost {
		s.logger.Warn().
			Str("owner_id", ownerID).
			Int("balance", account.Balance).
			Int("cost", cost).
			Msg("Credit reservation refused")
		return account.Balance, false, nil
	}

	account.Balance -= cost
	account.UpdatedAt = time.Now()

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return 0, false, fmt.Errorf("failed to save credit account: %w", err)
	}

	s.logger.Debug().
		Str("owner_id", ownerID).
		Int("cost", cost).
		Int("remaining", account.Balance).
		Msg("Credits reserved")

	return account.Balance, true, nil
}

// Balance returns the owner's current balance, seeding the account if needed
func (s *Service) Balance(ctx context.Context, ownerID string) (int, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.loadOrSeed(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Grant adds credits to the owner's balance
func (s *Service) Grant(ctx context.Context, ownerID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.loadOrSeed(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	account.Balance += amount
	account.UpdatedAt = time.Now()

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return 0, fmt.Errorf("failed to save credit account: %w", err)
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Int("amount", amount).
		Int("balance", account.Balance).
		Msg("Credits granted")

	return account.Balance, nil
}
