package http

import (
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/domain"
	"github.com/ledgervest/ledgervest/internal/funding/event"
	"github.com/ledgervest/ledgervest/internal/ledger"
	apperrors "github.com/ledgervest/ledgervest/internal/platform/errors"
)

// callerHeader identifies the acting address on mutating requests. The wallet
// layer is out of scope; the header stands in for the transaction sender.
const callerHeader = "X-Ledgervest-Caller"

// Amounts cross the wire as decimal strings of base units.

type campaignSummary struct {
	Address              string        `json:"address"`
	Manager              string        `json:"manager"`
	MinimumContribution  string        `json:"minimum_contribution"`
	Title                string        `json:"title,omitempty"`
	Description          string        `json:"description,omitempty"`
	TargetAmount         string        `json:"target_amount"`
	ContactEmail         string        `json:"contact_email,omitempty"`
	ApprovalThresholdPct int           `json:"approval_threshold_pct"`
	Balance              string        `json:"balance"`
	ApproversCount       int           `json:"approvers_count"`
	RequestsCount        int           `json:"requests_count"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	Requests             []requestView `json:"requests,omitempty"`
}

type requestView struct {
	Index         int       `json:"index"`
	Description   string    `json:"description,omitempty"`
	Value         string    `json:"value"`
	Recipient     string    `json:"recipient"`
	Complete      bool      `json:"complete"`
	ApprovalCount int       `json:"approval_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type accountView struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type eventView struct {
	Seq       uint64          `json:"seq"`
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload"`
}

type verifyView struct {
	Consistent bool     `json:"consistent"`
	LastSeq    uint64   `json:"last_seq"`
	Diffs      []string `json:"diffs,omitempty"`
}

type disbursementView struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Fee       string `json:"fee"`
}

func summaryFromCampaign(campaign *domain.Campaign, includeRequests bool) campaignSummary {
	summary := campaignSummary{
		Address:              campaign.Address.Hex(),
		Manager:              campaign.Manager.Hex(),
		MinimumContribution:  campaign.MinimumContribution.String(),
		Title:                campaign.Title,
		Description:          campaign.Description,
		TargetAmount:         campaign.TargetAmount.String(),
		ContactEmail:         campaign.ContactEmail,
		ApprovalThresholdPct: campaign.ApprovalThresholdPct,
		Balance:              campaign.Balance.String(),
		ApproversCount:       campaign.ApproversCount,
		RequestsCount:        len(campaign.Requests),
		CreatedAt:            campaign.CreatedAt,
		UpdatedAt:            campaign.UpdatedAt,
	}
	if includeRequests {
		for i := range campaign.Requests {
			summary.Requests = append(summary.Requests, viewFromRequest(i, &campaign.Requests[i]))
		}
	}
	return summary
}

func viewFromRequest(index int, request *domain.SpendingRequest) requestView {
	return requestView{
		Index:         index,
		Description:   request.Description,
		Value:         request.Value.String(),
		Recipient:     request.Recipient.Hex(),
		Complete:      request.Complete,
		ApprovalCount: request.ApprovalCount,
		CreatedAt:     request.CreatedAt,
	}
}

func viewFromAccount(account ledger.Account) accountView {
	return accountView{Address: account.Address.Hex(), Balance: account.Balance.String()}
}

func viewFromEvent(evt event.Event) eventView {
	return eventView{
		Seq:       evt.Seq,
		Hash:      evt.Hash,
		Timestamp: evt.Timestamp,
		Type:      string(evt.Type),
		Actor:     evt.Actor.Hex(),
		Payload:   json.RawMessage(evt.PayloadJSON),
	}
}

// callerFromRequest reads and validates the caller identity header.
func callerFromRequest(r *http.Request) (common.Address, error) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		return common.Address{}, apperrors.New(apperrors.CodeInvalidAddress, "caller header is required")
	}
	return parseAddress(raw)
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, apperrors.WithMetadata(apperrors.CodeInvalidAddress,
			"invalid address", map[string]string{"address": raw})
	}
	return common.HexToAddress(raw), nil
}

// parseAmount parses a decimal base-unit amount off the wire.
func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "amount is required")
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidAmount,
			"invalid amount", map[string]string{"amount": raw})
	}
	return amount, nil
}
