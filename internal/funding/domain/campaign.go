// Package domain holds the campaign funding aggregate and its state machine.
//
// A Campaign owns its held balance, approver set, and spending requests. All
// mutating methods enforce the funding invariants before touching state, so a
// method either fully applies or returns an error leaving the aggregate
// untouched. Serialization across callers is the service layer's job; the
// aggregate itself is not safe for concurrent use.
package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultApprovalThresholdPct is the quorum threshold applied to new
// campaigns: a request passes only when approvals exceed half the approvers.
const DefaultApprovalThresholdPct = 50

// Campaign represents a single fundraising campaign and its held funds.
type Campaign struct {
	// Address identifies the campaign, assigned at creation.
	Address common.Address
	// Manager is the address that created the campaign. Immutable; sole
	// authority for creating and finalizing spending requests.
	Manager common.Address
	// MinimumContribution is the smallest amount, in base units, that grants
	// approver membership. Fixed at creation.
	MinimumContribution *big.Int
	// Title, Description, TargetAmount and ContactEmail are informational
	// metadata, set once and never enforced.
	Title        string
	Description  string
	TargetAmount *big.Int
	ContactEmail string
	// ApprovalThresholdPct is the quorum percentage; approvals must strictly
	// exceed approversCount * pct / 100 for a request to finalize.
	ApprovalThresholdPct int
	// Balance is the campaign's held funds in base units. Increased by
	// contributions, decreased only by finalized requests.
	Balance *big.Int
	// Approvers is the set of addresses that have contributed at least the
	// minimum. Membership is monotonic.
	Approvers map[common.Address]bool
	// ApproversCount tracks len(Approvers) incrementally.
	ApproversCount int
	// Requests is the append-only spending request sequence, indexed by
	// creation order.
	Requests []SpendingRequest

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCampaignInput describes the parameters needed to create a campaign.
type CreateCampaignInput struct {
	Manager             common.Address
	MinimumContribution *big.Int
	Title               string
	Description         string
	TargetAmount        *big.Int
	ContactEmail        string
}

// CreateCampaign creates a new campaign with a generated address and timestamps.
func CreateCampaign(input CreateCampaignInput, now func() time.Time, addrGenerator func() (common.Address, error)) (*Campaign, error) {
	if now == nil {
		now = time.Now
	}

	normalized, err := NormalizeCreateCampaignInput(input)
	if err != nil {
		return nil, err
	}

	address, err := addrGenerator()
	if err != nil {
		return nil, err
	}

	createdAt := now().UTC()
	target := big.NewInt(0)
	if normalized.TargetAmount != nil {
		target = new(big.Int).Set(normalized.TargetAmount)
	}
	return &Campaign{
		Address:              address,
		Manager:              normalized.Manager,
		MinimumContribution:  new(big.Int).Set(normalized.MinimumContribution),
		Title:                normalized.Title,
		Description:          normalized.Description,
		TargetAmount:         target,
		ContactEmail:         normalized.ContactEmail,
		ApprovalThresholdPct: DefaultApprovalThresholdPct,
		Balance:              big.NewInt(0),
		Approvers:            make(map[common.Address]bool),
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}, nil
}

// NormalizeCreateCampaignInput trims and validates campaign creation input.
func NormalizeCreateCampaignInput(input CreateCampaignInput) (CreateCampaignInput, error) {
	if input.Manager == (common.Address{}) {
		return CreateCampaignInput{}, ErrInvalidManager
	}
	if input.MinimumContribution == nil || input.MinimumContribution.Sign() <= 0 {
		return CreateCampaignInput{}, ErrNonPositiveMinimum
	}
	if input.TargetAmount != nil && input.TargetAmount.Sign() < 0 {
		return CreateCampaignInput{}, ErrNonPositiveValue
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.ContactEmail = strings.TrimSpace(input.ContactEmail)
	return input, nil
}

// IsApprover reports whether the address holds voting rights on this campaign.
func (c *Campaign) IsApprover(addr common.Address) bool {
	return c.Approvers[addr]
}

// Contribute records a contribution from caller.
//
// Contributions below the minimum are rejected without any state change. A
// qualifying contribution increases the balance and grants approver
// membership; repeat contributions from the same address never duplicate the
// membership entry.
func (c *Campaign) Contribute(caller common.Address, amount *big.Int, now time.Time) error {
	if amount == nil || amount.Cmp(c.MinimumContribution) < 0 {
		return ErrContributionTooSmall
	}

	c.Balance = new(big.Int).Add(c.Balance, amount)
	if !c.Approvers[caller] {
		c.Approvers[caller] = true
		c.ApproversCount++
	}
	c.UpdatedAt = now.UTC()
	return nil
}

// CreateRequest appends a new spending request and returns its index.
//
// Solvency is deliberately not checked here: requests may exceed the current
// balance and are only validated against funds at finalization time.
func (c *Campaign) CreateRequest(caller common.Address, description string, value *big.Int, recipient common.Address, now time.Time) (int, error) {
	if caller != c.Manager {
		return 0, ErrNotManager
	}
	if value == nil || value.Sign() <= 0 {
		return 0, ErrNonPositiveValue
	}
	if recipient == (common.Address{}) {
		return 0, ErrInvalidRecipient
	}

	index := len(c.Requests)
	c.Requests = append(c.Requests, SpendingRequest{
		Description: strings.TrimSpace(description),
		Value:       new(big.Int).Set(value),
		Recipient:   recipient,
		Approvals:   make(map[common.Address]bool),
		CreatedAt:   now.UTC(),
	})
	c.UpdatedAt = now.UTC()
	return index, nil
}

// ApproveRequest records caller's vote for the request at index.
//
// Each approver votes at most once per request; repeat votes are rejected so
// the approval count always equals the approval set size.
func (c *Campaign) ApproveRequest(caller common.Address, index int, now time.Time) error {
	request, err := c.request(index)
	if err != nil {
		return err
	}
	if !c.Approvers[caller] {
		return ErrNotApprover
	}
	if request.Complete {
		return ErrRequestFinalized
	}
	if request.Approvals[caller] {
		return ErrAlreadyApproved
	}

	request.Approvals[caller] = true
	request.ApprovalCount++
	c.UpdatedAt = now.UTC()
	return nil
}

// Disbursement describes the fund movement produced by a finalization.
type Disbursement struct {
	// Recipient receives Amount, the request value minus the platform fee.
	Recipient common.Address
	Amount    *big.Int
	// Fee is the platform's cut; zero when no fee is configured.
	Fee *big.Int
}

// FinalizeRequest marks the request complete and returns the resulting
// disbursement.
//
// All three preconditions (terminal state, quorum, solvency) are checked
// before any state changes. feeBps is the platform fee in basis points taken
// out of the disbursed value; the campaign balance always decreases by the
// full request value.
func (c *Campaign) FinalizeRequest(caller common.Address, index int, feeBps int, now time.Time) (Disbursement, error) {
	request, err := c.request(index)
	if err != nil {
		return Disbursement{}, err
	}
	if caller != c.Manager {
		return Disbursement{}, ErrNotManager
	}
	if request.Complete {
		return Disbursement{}, ErrRequestFinalized
	}
	if !c.meetsQuorum(request.ApprovalCount) {
		return Disbursement{}, ErrInsufficientApprovals
	}
	if request.Value.Cmp(c.Balance) > 0 {
		return Disbursement{}, ErrInsufficientFunds
	}

	fee := big.NewInt(0)
	if feeBps > 0 {
		fee = new(big.Int).Mul(request.Value, big.NewInt(int64(feeBps)))
		fee.Div(fee, big.NewInt(10000))
	}

	c.Balance = new(big.Int).Sub(c.Balance, request.Value)
	request.Complete = true
	c.UpdatedAt = now.UTC()

	return Disbursement{
		Recipient: request.Recipient,
		Amount:    new(big.Int).Sub(request.Value, fee),
		Fee:       fee,
	}, nil
}

// SetApprovalThreshold changes the quorum percentage for future finalizations.
func (c *Campaign) SetApprovalThreshold(caller common.Address, pct int, now time.Time) error {
	if caller != c.Manager {
		return ErrNotManager
	}
	if pct < 1 || pct > 100 {
		return ErrInvalidThreshold
	}
	c.ApprovalThresholdPct = pct
	c.UpdatedAt = now.UTC()
	return nil
}

// meetsQuorum applies the strict-majority rule generalized to the campaign
// threshold: approvals * 100 must strictly exceed approvers * pct. At the
// default 50% this is exactly approvalCount*2 > approversCount, so a request
// with exactly half the approvers' votes does not pass.
func (c *Campaign) meetsQuorum(approvalCount int) bool {
	return approvalCount*100 > c.ApproversCount*c.ApprovalThresholdPct
}

func (c *Campaign) request(index int) (*SpendingRequest, error) {
	if index < 0 || index >= len(c.Requests) {
		return nil, ErrRequestNotFound
	}
	return &c.Requests[index], nil
}
