package escrow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/repository"
)

// PostgresNativeLedger implements NativeLedger over an account_balances
// table.
type PostgresNativeLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresNativeLedger creates a new PostgresNativeLedger.
func NewPostgresNativeLedger(pool *pgxpool.Pool) *PostgresNativeLedger {
	return &PostgresNativeLedger{pool: pool}
}

// Debit removes amount from account. The balance guard in the UPDATE
// keeps the ledger non-negative; an uncovered debit updates zero rows.
func (l *PostgresNativeLedger) Debit(ctx context.Context, account string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	q := repository.QuerierFrom(ctx, l.pool)

	tag, err := q.Exec(ctx, `
		UPDATE account_balances SET balance = balance - $2
		WHERE account = $1 AND balance >= $2
	`, account, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to account, creating the row when absent.
func (l *PostgresNativeLedger) Credit(ctx context.Context, account string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	q := repository.QuerierFrom(ctx, l.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO account_balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = account_balances.balance + EXCLUDED.balance
	`, account, amount)
	return err
}

// Balance returns the current balance of account.
func (l *PostgresNativeLedger) Balance(ctx context.Context, account string) (uint64, error) {
	q := repository.QuerierFrom(ctx, l.pool)

	var balance uint64
	err := q.QueryRow(ctx, `
		SELECT balance FROM account_balances WHERE account = $1
	`, account).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// PostgresAssetTransferService implements AssetTransferService over an
// asset_balances table.
type PostgresAssetTransferService struct {
	pool *pgxpool.Pool
}

// NewPostgresAssetTransferService creates a new PostgresAssetTransferService.
func NewPostgresAssetTransferService(pool *pgxpool.Pool) *PostgresAssetTransferService {
	return &PostgresAssetTransferService{pool: pool}
}

// Transfer moves amount of asset from one account to another inside the
// caller's transaction.
func (s *PostgresAssetTransferService) Transfer(ctx context.Context, from, to, asset string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == "" || to == "" || asset == "" {
		return domain.ErrAccountNotProvided
	}
	q := repository.QuerierFrom(ctx, s.pool)

	tag, err := q.Exec(ctx, `
		UPDATE asset_balances SET balance = balance - $3
		WHERE account = $1 AND asset = $2 AND balance >= $3
	`, from, asset, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientFunds
	}

	_, err = q.Exec(ctx, `
		INSERT INTO asset_balances (account, asset, balance) VALUES ($1, $2, $3)
		ON CONFLICT (account, asset) DO UPDATE SET balance = asset_balances.balance + EXCLUDED.balance
	`, to, asset, amount)
	return err
}

// Held returns the amount of asset held by account.
func (s *PostgresAssetTransferService) Held(ctx context.Context, account, asset string) (uint64, error) {
	q := repository.QuerierFrom(ctx, s.pool)

	var balance uint64
	err := q.QueryRow(ctx, `
		SELECT balance FROM asset_balances WHERE account = $1 AND asset = $2
	`, account, asset).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
