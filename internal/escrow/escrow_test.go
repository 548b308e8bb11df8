package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/Fosho-App/fosho-v1/internal/domain"
)

func TestDepositCommitmentFee(t *testing.T) {
	ctx := context.Background()

	t.Run("moves fee into the event escrow", func(t *testing.T) {
		ledger := NewMemoryNativeLedger()
		ledger.SetBalance("alice", 100)
		acct := NewAccountant(ledger, NewMemoryAssetTransferService())

		if err := acct.DepositCommitmentFee(ctx, "evt-1", "alice", 40); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got, _ := ledger.Balance(ctx, "alice"); got != 60 {
			t.Errorf("alice balance = %d, want 60", got)
		}
		if got, _ := ledger.Balance(ctx, FeeAccount("evt-1")); got != 40 {
			t.Errorf("escrow balance = %d, want 40", got)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ledger := NewMemoryNativeLedger()
		ledger.SetBalance("alice", 10)
		acct := NewAccountant(ledger, NewMemoryAssetTransferService())

		err := acct.DepositCommitmentFee(ctx, "evt-1", "alice", 40)
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		if got, _ := ledger.Balance(ctx, "alice"); got != 10 {
			t.Errorf("alice balance = %d, want untouched 10", got)
		}
	})

	t.Run("zero fee is a no-op", func(t *testing.T) {
		ledger := NewMemoryNativeLedger()
		acct := NewAccountant(ledger, NewMemoryAssetTransferService())

		if err := acct.DepositCommitmentFee(ctx, "evt-1", "alice", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestReleaseCommitmentFee(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryNativeLedger()
	ledger.SetBalance(FeeAccount("evt-1"), 40)
	acct := NewAccountant(ledger, NewMemoryAssetTransferService())

	if err := acct.ReleaseCommitmentFee(ctx, "evt-1", "alice", 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := ledger.Balance(ctx, "alice"); got != 40 {
		t.Errorf("alice balance = %d, want 40", got)
	}
	if got, _ := ledger.Balance(ctx, FeeAccount("evt-1")); got != 0 {
		t.Errorf("escrow balance = %d, want 0", got)
	}
}

func TestRewardPool(t *testing.T) {
	ctx := context.Background()
	assets := NewMemoryAssetTransferService()
	assets.SetHeld("organizer", "points", 500)
	acct := NewAccountant(NewMemoryNativeLedger(), assets)

	if err := acct.FundRewardPool(ctx, "evt-1", "points", "organizer", 500); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if got, _ := assets.Held(ctx, RewardAccount("evt-1"), "points"); got != 500 {
		t.Errorf("pool = %d, want 500", got)
	}

	if err := acct.PayReward(ctx, "evt-1", "points", "alice", 50); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if got, _ := assets.Held(ctx, "alice", "points"); got != 50 {
		t.Errorf("alice holds %d, want 50", got)
	}
	if got, _ := assets.Held(ctx, RewardAccount("evt-1"), "points"); got != 450 {
		t.Errorf("pool = %d, want 450", got)
	}
}

func TestTransferRequiresAccounts(t *testing.T) {
	assets := NewMemoryAssetTransferService()
	err := assets.Transfer(context.Background(), "", "alice", "points", 10)
	if !errors.Is(err, domain.ErrAccountNotProvided) {
		t.Fatalf("expected ErrAccountNotProvided, got %v", err)
	}
}
