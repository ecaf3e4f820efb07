package normalizer

import (
	"testing"

	"github.com/ZilDuck/marketplace-indexer/internal/dev"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

type mockRecorder struct {
	recorded []dev.Error
}

func (m *mockRecorder) RecordError(err dev.Error) {
	m.recorded = append(m.recorded, err)
}

func createListingLogs(txHash string, listingId string, block uint64) []entity.RawLog {
	return []entity.RawLog{
		{
			ContractAddr: "0xMarket",
			ChainId:      1,
			EventName:    string(entity.MpCreateListingEvent),
			BlockNum:     block,
			LogIndex:     0,
			TxHash:       txHash,
			Timestamp:    500,
			Args: entity.Args{
				"listingId":       listingId,
				"seller":          "0xSeller",
				"listingType":     "1",
				"initialAmount":   "1000000",
				"totalAvailable":  "10",
				"totalPerSale":    "2",
				"startTime":       "0",
				"endTime":         "3600",
				"minIncrementBps": "500",
			},
		},
		{
			ContractAddr: "0xMarket",
			ChainId:      1,
			EventName:    string(entity.MpCreateListingTokenDetailsEvent),
			BlockNum:     block,
			LogIndex:     1,
			TxHash:       txHash,
			Timestamp:    500,
			Args: entity.Args{
				"listingId": listingId,
				"tokenSpec": "0",
				"tokenAddr": "0xToken",
				"tokenId":   "42",
				"lazy":      "false",
			},
		},
		{
			ContractAddr: "0xMarket",
			ChainId:      1,
			EventName:    string(entity.MpCreateListingFeesEvent),
			BlockNum:     block,
			LogIndex:     2,
			TxHash:       txHash,
			Timestamp:    500,
			Args: entity.Args{
				"listingId":      listingId,
				"marketplaceBps": "250",
				"referrerBps":    "100",
				"receivers":      "0xR1:50|0xR2:25",
			},
		},
	}
}

func bidLog(txHash string, block, logIndex uint64, amount string) entity.RawLog {
	return entity.RawLog{
		ContractAddr: "0xMarket",
		ChainId:      1,
		EventName:    string(entity.MpBidEvent),
		BlockNum:     block,
		LogIndex:     logIndex,
		TxHash:       txHash,
		Timestamp:    1000,
		Args: entity.Args{
			"listingId": "7",
			"bidder":    "0xBidder",
			"amount":    amount,
		},
	}
}

func TestNormalizeMergesCreateListing(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	events := n.Normalize(createListingLogs("0xtx1", "7", 100))

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e := events[0]
	if e.Name != entity.ListingCreated {
		t.Errorf("name = %s, want ListingCreated", e.Name)
	}
	if e.ListingId != 7 {
		t.Errorf("listingId = %d, want 7", e.ListingId)
	}
	if e.MarketplaceAddr != "0xmarket" {
		t.Errorf("marketplaceAddr = %s, want lowercased", e.MarketplaceAddr)
	}
	if e.LogIndex != 0 {
		t.Errorf("logIndex = %d, want anchor at CreateListing part", e.LogIndex)
	}

	created := e.Created
	if created == nil {
		t.Fatal("created payload missing")
	}
	if created.ListingType != entity.FixedPrice {
		t.Errorf("listingType = %s, want FIXED_PRICE", created.ListingType)
	}
	if created.TokenSpec != entity.Erc721 {
		t.Errorf("tokenSpec = %s, want ERC721", created.TokenSpec)
	}
	if created.TokenAddr != "0xtoken" {
		t.Errorf("tokenAddr = %s", created.TokenAddr)
	}
	if created.Fees.MarketplaceBPS != 250 {
		t.Errorf("marketplaceBps = %d, want 250", created.Fees.MarketplaceBPS)
	}
	if len(created.Fees.Receivers) != 2 || created.Fees.Receivers[0].Receiver != "0xr1" || created.Fees.Receivers[1].BPS != 25 {
		t.Errorf("receivers = %+v", created.Fees.Receivers)
	}

	if len(recorder.recorded) != 0 {
		t.Errorf("recorded errors = %d, want 0", len(recorder.recorded))
	}
}

func TestNormalizeIncompleteMergeDropsListing(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	// Fees part missing.
	logs := createListingLogs("0xtx1", "7", 100)[:2]
	logs = append(logs, bidLog("0xtx2", 101, 0, "1000000"))

	events := n.Normalize(logs)

	if len(events) != 1 {
		t.Fatalf("events = %d, want only the bid", len(events))
	}
	if events[0].Name != entity.MpBidEvent {
		t.Errorf("name = %s, want BidMade", events[0].Name)
	}
	if len(recorder.recorded) != 1 {
		t.Errorf("recorded errors = %d, want 1", len(recorder.recorded))
	}
}

func TestNormalizeDeduplicatesAndOrders(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	logs := []entity.RawLog{
		bidLog("0xtx3", 102, 4, "3000000"),
		bidLog("0xtx2", 101, 2, "2000000"),
		bidLog("0xtx2", 101, 2, "2000000"),
		bidLog("0xtx2", 101, 0, "1000000"),
	}

	events := n.Normalize(logs)

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3 after dedupe", len(events))
	}

	for i := 1; i < len(events); i++ {
		prev, curr := events[i-1], events[i]
		if prev.BlockNum > curr.BlockNum ||
			(prev.BlockNum == curr.BlockNum && prev.LogIndex >= curr.LogIndex) {
			t.Errorf("events out of order at %d: %+v then %+v", i, prev, curr)
		}
	}
}

func TestNormalizeReorgEviction(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	orphaned := bidLog("0xorphan", 101, 0, "1000000")
	removal := orphaned
	removal.Removed = true
	canonical := bidLog("0xcanonical", 101, 0, "2000000")

	events := n.Normalize([]entity.RawLog{orphaned, removal, canonical})

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].TxHash != "0xcanonical" {
		t.Errorf("txHash = %s, want the canonical log", events[0].TxHash)
	}
	if events[0].Bid.Amount != "2000000" {
		t.Errorf("amount = %s, want 2000000", events[0].Bid.Amount)
	}
}

func TestNormalizeSkipsMalformedLog(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	malformed := bidLog("0xbad", 101, 0, "not-a-number")
	valid := bidLog("0xgood", 102, 0, "1000000")

	events := n.Normalize([]entity.RawLog{malformed, valid})

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].TxHash != "0xgood" {
		t.Errorf("txHash = %s, want the valid log", events[0].TxHash)
	}
	if len(recorder.recorded) != 1 {
		t.Errorf("recorded errors = %d, want 1", len(recorder.recorded))
	}
}

func TestNormalizeLazyMintClearsTokenId(t *testing.T) {
	recorder := &mockRecorder{}
	n := NewNormalizer(recorder)

	logs := createListingLogs("0xtx1", "7", 100)
	logs[1].Args["lazy"] = "true"

	events := n.Normalize(logs)

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if !events[0].Created.Lazy {
		t.Error("lazy = false, want true")
	}
	if events[0].Created.TokenId != "" {
		t.Errorf("tokenId = %s, want empty for lazy mint", events[0].Created.TokenId)
	}
}
