package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SpendingRequest is a manager-proposed withdrawal of campaign funds.
//
// Requests live in a campaign's append-only sequence and carry a two-state
// lifecycle: pending until finalized, then terminal. Only mutated through the
// owning Campaign.
type SpendingRequest struct {
	// Description is the free-text purpose, set at creation.
	Description string
	// Value is the amount transferred on finalization, in base units.
	Value *big.Int
	// Recipient receives the disbursement.
	Recipient common.Address
	// Complete is set exactly once, on successful finalization.
	Complete bool
	// ApprovalCount equals len(Approvals) at all times.
	ApprovalCount int
	// Approvals is the set of approvers that voted for this request.
	Approvals map[common.Address]bool

	CreatedAt time.Time
}

// HasApproved reports whether addr already voted for this request.
func (r *SpendingRequest) HasApproved(addr common.Address) bool {
	return r.Approvals[addr]
}
