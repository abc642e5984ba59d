package service

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ledgervest/ledgervest/internal/funding/projection"
	"github.com/ledgervest/ledgervest/internal/storage"
	"github.com/ledgervest/ledgervest/internal/telemetry"
)

// VerifyResult reports whether a campaign's journal reproduces its stored
// projection.
type VerifyResult struct {
	Consistent bool
	// LastSeq is the highest journal sequence that was replayed.
	LastSeq uint64
	// Diffs lists the fields where replayed and stored state disagree.
	Diffs []string
}

// Verify replays the campaign's journal and diffs the result against the
// stored projection. Divergence is reported, not repaired.
func (s *Service) Verify(ctx context.Context, addr common.Address) (VerifyResult, error) {
	unlock := s.campaignLocks.lock(addr.Hex())
	defer unlock()

	stored, err := s.store.GetCampaign(ctx, addr)
	if err != nil {
		return VerifyResult{}, err
	}
	replayed, lastSeq, err := projection.Replay(ctx, s.store, addr)
	if err != nil {
		return VerifyResult{}, err
	}

	diffs := projection.Diff(replayed, stored)
	result := VerifyResult{
		Consistent: len(diffs) == 0,
		LastSeq:    lastSeq,
		Diffs:      diffs,
	}
	if !result.Consistent {
		log.Printf("journal divergence detected campaign=%s last_seq=%d diffs=%d",
			addr.Hex(), lastSeq, len(diffs))
		_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
			Severity:        string(telemetry.SeverityError),
			Operation:       "verify",
			CampaignAddress: addr.Hex(),
			Message:         "replayed journal diverges from stored projection",
		})
	}
	return result, nil
}
