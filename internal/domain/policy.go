package domain

// PolicyKind discriminates the access-policy union.
type PolicyKind string

const (
	PolicyOpen             PolicyKind = "open"
	PolicyCollectibleGated PolicyKind = "collectible_gated"
	PolicyBalanceGated     PolicyKind = "balance_gated"
)

// IsValid returns true if the policy kind is a known value.
func (k PolicyKind) IsValid() bool {
	switch k {
	case PolicyOpen, PolicyCollectibleGated, PolicyBalanceGated:
		return true
	}
	return false
}

// AccessPolicy gates who may register for an event. It is a tagged
// union: only the fields of the active kind are meaningful. The policy
// is fixed at event creation and never changes.
type AccessPolicy struct {
	Kind PolicyKind `json:"kind"`

	// CollectibleGated: requester must present a collectible that is a
	// verified member of Collection, or verifiably attributed to
	// Creator. Either alone suffices; with neither configured the gate
	// degenerates to open.
	Collection string `json:"collection,omitempty"`
	Creator    string `json:"creator,omitempty"`

	// BalanceGated: requester must present an account holding Asset,
	// with at least MinAmount when configured.
	Asset     string `json:"asset,omitempty"`
	MinAmount uint64 `json:"min_amount,omitempty"`
}

// OpenPolicy is the policy that admits everyone.
func OpenPolicy() AccessPolicy {
	return AccessPolicy{Kind: PolicyOpen}
}

// EligibilityProof is the external proof material a registrant presents
// against a gated event. Unused fields stay empty for open events.
type EligibilityProof struct {
	// CollectibleID names the collectible asset presented as membership
	// or attribution proof.
	CollectibleID string `json:"collectible_id,omitempty"`
	// HolderAccount names the account whose balance is presented
	// against a balance gate.
	HolderAccount string `json:"holder_account,omitempty"`
}
