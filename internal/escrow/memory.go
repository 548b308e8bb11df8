package escrow

import (
	"context"
	"sync"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

// MemoryNativeLedger is an in-memory NativeLedger for tests and
// single-node development.
type MemoryNativeLedger struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

// NewMemoryNativeLedger creates an empty in-memory ledger.
func NewMemoryNativeLedger() *MemoryNativeLedger {
	return &MemoryNativeLedger{balances: make(map[string]uint64)}
}

// SetBalance seeds an account balance.
func (l *MemoryNativeLedger) SetBalance(account string, balance uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = balance
}

// Debit removes amount from account.
func (l *MemoryNativeLedger) Debit(_ context.Context, account string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[account] < amount {
		return domain.ErrInsufficientFunds
	}
	l.balances[account] -= amount
	return nil
}

// Credit adds amount to account.
func (l *MemoryNativeLedger) Credit(_ context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
	return nil
}

// Balance returns the current balance of account.
func (l *MemoryNativeLedger) Balance(_ context.Context, account string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}

type assetKey struct {
	account string
	asset   string
}

// MemoryAssetTransferService is an in-memory AssetTransferService for
// tests and single-node development.
type MemoryAssetTransferService struct {
	mu       sync.RWMutex
	balances map[assetKey]uint64
}

// NewMemoryAssetTransferService creates an empty in-memory asset store.
func NewMemoryAssetTransferService() *MemoryAssetTransferService {
	return &MemoryAssetTransferService{balances: make(map[assetKey]uint64)}
}

// SetHeld seeds an account's holding of an asset.
func (s *MemoryAssetTransferService) SetHeld(account, asset string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[assetKey{account, asset}] = amount
}

// Transfer moves amount of asset between accounts.
func (s *MemoryAssetTransferService) Transfer(_ context.Context, from, to, asset string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == "" || to == "" || asset == "" {
		return domain.ErrAccountNotProvided
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fromKey := assetKey{from, asset}
	if s.balances[fromKey] < amount {
		return domain.ErrInsufficientFunds
	}
	s.balances[fromKey] -= amount
	s.balances[assetKey{to, asset}] += amount
	return nil
}

// Held returns the amount of asset held by account.
func (s *MemoryAssetTransferService) Held(_ context.Context, account, asset string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[assetKey{account, asset}], nil
}
