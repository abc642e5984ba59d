// Package event defines the append-only campaign funding journal.
//
// Every mutation of a campaign appends exactly one event. Events are
// immutable facts ordered by a per-campaign sequence number; off-chain
// observers consume them through the HTTP API and the projection package
// folds them back into aggregate state.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Type identifies the type of a campaign funding event.
type Type string

const (
	// TypeCampaignCreated records the creation of a campaign.
	TypeCampaignCreated Type = "campaign.created"
	// TypeContributionReceived records a qualifying contribution.
	TypeContributionReceived Type = "campaign.contribution_received"
	// TypeRequestCreated records a new spending request.
	TypeRequestCreated Type = "campaign.request_created"
	// TypeRequestApproved records an approver's vote on a spending request.
	TypeRequestApproved Type = "campaign.request_approved"
	// TypeRequestFinalized records a spending request disbursement.
	TypeRequestFinalized Type = "campaign.request_finalized"
	// TypeThresholdChanged records an approval threshold change.
	TypeThresholdChanged Type = "campaign.approval_threshold_changed"
)

// Event represents an immutable entry in a campaign's funding journal.
type Event struct {
	// CampaignAddress is the campaign this event belongs to.
	CampaignAddress common.Address
	// Seq is the event sequence number within the campaign (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Hash is the content-addressed identity (SHA-256 truncated to 128-bit).
	// Assigned by storage on append.
	Hash string
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// Actor is the address that triggered the event.
	Actor common.Address
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	switch t {
	case TypeCampaignCreated,
		TypeContributionReceived,
		TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestFinalized,
		TypeThresholdChanged:
		return true
	}
	return false
}

// ContentHash derives the content-addressed identity of an event. Seq must be
// assigned before hashing so the identity covers journal position.
func ContentHash(evt Event) string {
	var b strings.Builder
	b.WriteString(evt.CampaignAddress.Hex())
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(evt.Seq, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(evt.Timestamp.UTC().UnixMilli(), 10))
	b.WriteByte('|')
	b.WriteString(string(evt.Type))
	b.WriteByte('|')
	b.WriteString(evt.Actor.Hex())
	b.WriteByte('|')
	b.Write(evt.PayloadJSON)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
