// Package escrow moves committed value between registrants, event
// escrow balances, and claimants. Escrow accounts are owned by the
// event record for its lifetime; only the accountant methods invoked by
// the event state machine touch them.
package escrow

import "context"

// NativeLedger supports direct debit and credit of native-currency
// account balances.
type NativeLedger interface {
	// Debit removes amount from account, failing with
	// domain.ErrInsufficientFunds when the balance does not cover it.
	Debit(ctx context.Context, account string, amount uint64) error
	// Credit adds amount to account, creating it when absent.
	Credit(ctx context.Context, account string, amount uint64) error
	// Balance returns the current balance of account, zero when absent.
	Balance(ctx context.Context, account string) (uint64, error)
}

// AssetTransferService moves fungible asset balances between accounts.
// It fails on insufficient balance or ownership mismatch.
type AssetTransferService interface {
	Transfer(ctx context.Context, from, to, asset string, amount uint64) error
	// Held returns the amount of asset held by account, zero when absent.
	Held(ctx context.Context, account, asset string) (uint64, error)
}

// FeeAccount is the native-currency escrow account owned by an event.
func FeeAccount(eventID string) string {
	return "event:" + eventID
}

// RewardAccount is the reward-asset escrow account owned by an event.
func RewardAccount(eventID string) string {
	return "event-rewards:" + eventID
}

// Accountant orchestrates the escrow movements of the event lifecycle.
// Every method is a no-op for a zero amount, and runs against the
// transaction already on the caller's context.
type Accountant struct {
	ledger NativeLedger
	assets AssetTransferService
}

// NewAccountant creates an Accountant over the given collaborators.
func NewAccountant(ledger NativeLedger, assets AssetTransferService) *Accountant {
	return &Accountant{ledger: ledger, assets: assets}
}

// DepositCommitmentFee moves the commitment fee from the registrant
// into the event's fee escrow.
func (a *Accountant) DepositCommitmentFee(ctx context.Context, eventID, from string, fee uint64) error {
	if fee == 0 {
		return nil
	}
	if err := a.ledger.Debit(ctx, from, fee); err != nil {
		return err
	}
	return a.ledger.Credit(ctx, FeeAccount(eventID), fee)
}

// ReleaseCommitmentFee moves the commitment fee from the event's fee
// escrow to the claimer.
func (a *Accountant) ReleaseCommitmentFee(ctx context.Context, eventID, to string, fee uint64) error {
	if fee == 0 {
		return nil
	}
	if err := a.ledger.Debit(ctx, FeeAccount(eventID), fee); err != nil {
		return err
	}
	return a.ledger.Credit(ctx, to, fee)
}

// FundRewardPool moves the full reward pool from the organizer's source
// account into the event's reward escrow at creation time.
func (a *Accountant) FundRewardPool(ctx context.Context, eventID, asset, from string, total uint64) error {
	if total == 0 {
		return nil
	}
	return a.assets.Transfer(ctx, from, RewardAccount(eventID), asset, total)
}

// PayReward moves one attendee's reward from the event's reward escrow
// to the claimer's receiving account.
func (a *Accountant) PayReward(ctx context.Context, eventID, asset, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	return a.assets.Transfer(ctx, RewardAccount(eventID), to, asset, amount)
}
