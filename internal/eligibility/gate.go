package eligibility

import (
	"context"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/registry"
)

// Gate evaluates access policies against externally held asset state.
// It is a pure dispatcher over the policy union: given the policy, the
// registrant and the proof material they presented, Check returns nil
// when registration may proceed and a domain error describing the
// denial otherwise.
type Gate struct {
	collectibles registry.CollectibleRegistry
	assets       escrow.AssetTransferService
}

// NewGate creates a Gate over the given registries.
func NewGate(collectibles registry.CollectibleRegistry, assets escrow.AssetTransferService) *Gate {
	return &Gate{collectibles: collectibles, assets: assets}
}

// Check runs the policy against the registrant's proof.
func (g *Gate) Check(ctx context.Context, policy domain.AccessPolicy, registrant string, proof domain.EligibilityProof) error {
	switch policy.Kind {
	case domain.PolicyOpen:
		return nil
	case domain.PolicyCollectibleGated:
		return g.checkCollectible(ctx, policy, registrant, proof)
	case domain.PolicyBalanceGated:
		return g.checkBalance(ctx, policy, proof)
	}
	return domain.ErrIneligibleCollectible
}

func (g *Gate) checkCollectible(ctx context.Context, policy domain.AccessPolicy, registrant string, proof domain.EligibilityProof) error {
	// With neither collection nor creator configured the gate
	// degenerates to open.
	if policy.Collection == "" && policy.Creator == "" {
		return nil
	}
	if proof.CollectibleID == "" {
		return domain.ErrAccountNotProvided
	}

	c, err := g.collectibles.FetchCollectible(ctx, proof.CollectibleID)
	if err != nil {
		return err
	}
	if c == nil || c.Owner != registrant {
		return domain.ErrIneligibleCollectible
	}

	if policy.Collection != "" && c.CollectionVerified && c.Collection == policy.Collection {
		return nil
	}
	if policy.Creator != "" && c.CreatorVerified && c.Creator == policy.Creator {
		return nil
	}
	return domain.ErrIneligibleCollectible
}

func (g *Gate) checkBalance(ctx context.Context, policy domain.AccessPolicy, proof domain.EligibilityProof) error {
	if policy.Asset == "" {
		return nil
	}
	if proof.HolderAccount == "" {
		return domain.ErrAccountNotProvided
	}

	held, err := g.assets.Held(ctx, proof.HolderAccount, policy.Asset)
	if err != nil {
		return err
	}
	if held == 0 {
		return domain.ErrIneligibleBalance
	}
	if policy.MinAmount > 0 && held < policy.MinAmount {
		return domain.ErrIneligibleBalance
	}
	return nil
}
