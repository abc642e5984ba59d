package event

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestTypeIsValid(t *testing.T) {
	valid := []Type{
		TypeCampaignCreated,
		TypeContributionReceived,
		TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestFinalized,
		TypeThresholdChanged,
	}
	for _, typ := range valid {
		if !typ.IsValid() {
			t.Errorf("expected %s to be valid", typ)
		}
	}
	if Type("campaign.bogus").IsValid() {
		t.Error("expected unknown type to be invalid")
	}
	if Type("").IsValid() {
		t.Error("expected empty type to be invalid")
	}
}

func TestContentHashIsStable(t *testing.T) {
	evt := Event{
		CampaignAddress: common.HexToAddress("0xc000000000000000000000000000000000000001"),
		Seq:             1,
		Timestamp:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Type:            TypeContributionReceived,
		Actor:           common.HexToAddress("0x2000000000000000000000000000000000000001"),
		PayloadJSON:     []byte(`{"amount":"2"}`),
	}

	first := ContentHash(evt)
	second := ContentHash(evt)
	if first != second {
		t.Fatal("expected hash to be deterministic")
	}
	if len(first) != 32 {
		t.Fatalf("expected 128-bit hex hash, got %d chars", len(first))
	}

	evt.Seq = 2
	if ContentHash(evt) == first {
		t.Fatal("expected hash to change with sequence")
	}
}
