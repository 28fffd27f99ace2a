package credits

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
)

type memCreditStorage struct {
	mu       sync.Mutex
	accounts map[string]models.CreditAccount
}

func newMemCreditStorage() *memCreditStorage {
	return &memCreditStorage{accounts: make(map[string]models.CreditAccount)}
}

func (s *memCreditStorage) GetAccount(ctx context.Context, ownerID string) (*models.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[ownerID]
	if !ok {
		return nil, nil
	}
	accountCopy := account
	return &accountCopy, nil
}

func (s *memCreditStorage) SaveAccount(ctx context.Context, account *models.CreditAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.OwnerID] = *account
	return nil
}

func newTestService() *Service {
	cfg := &common.CreditsConfig{InitialBalance: 10, CostPerJob: 2}
	return NewService(newMemCreditStorage(), cfg, common.GetLogger())
}

func TestBalanceSeedsNewOwner(t *testing.T) {
	svc := newTestService()

	balance, err := svc.Balance(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestReserveDeducts(t *testing.T) {
	svc := newTestService()

	remaining, ok, err := svc.Reserve(context.Background(), "owner-1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, remaining)

	balance, err := svc.Balance(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 8, balance)
}

func TestReserveInsufficientLeavesBalance(t *testing.T) {
	svc := newTestService()

	remaining, ok, err := svc.Reserve(context.Background(), "owner-1", 11)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 10, remaining)

	// Refusal never deducts
	balance, _ := svc.Balance(context.Background(), "owner-1")
	assert.Equal(t, 10, balance)
}

func TestReserveDrainsToZero(t *testing.T) {
	svc := newTestService()

	for i := 0; i < 5; i++ {
		_, ok, err := svc.Reserve(context.Background(), "owner-1", 2)
		require.NoError(t, err)
		require.True(t, ok)
	}

	remaining, ok, err := svc.Reserve(context.Background(), "owner-1", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
}

func TestConcurrentReserveNeverOverdraws(t *testing.T) {
	svc := newTestService()

	var wg sync.WaitGroup
	var granted sync.Map
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, ok, _ := svc.Reserve(context.Background(), "owner-1", 2); ok {
				granted.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	granted.Range(func(_, _ interface{}) bool {
		count++
		return true
	})

	// 10 credits at cost 2 means exactly 5 grants
	assert.Equal(t, 5, count)

	balance, _ := svc.Balance(context.Background(), "owner-1")
	assert.Equal(t, 0, balance)
}

func TestGrant(t *testing.T) {
	svc := newTestService()

	balance, err := svc.Grant(context.Background(), "owner-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	_, err = svc.Grant(context.Background(), "owner-1", 0)
	assert.Error(t, err)
	_, err = svc.Grant(context.Background(), "owner-1", -3)
	assert.Error(t, err)
}

func TestOwnersIsolated(t *testing.T) {
	svc := newTestService()

	_, ok, err := svc.Reserve(context.Background(), "owner-1", 10)
	require.NoError(t, err)
	require.True(t, ok)

	balance, err := svc.Balance(context.Background(), "owner-2")
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}
