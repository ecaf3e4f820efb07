package normalizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/dev"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"go.uber.org/zap"
)

var (
	ErrIncompleteMerge = errors.New("incomplete multi-part CreateListing")
)

// Recorder persists structured error records for skipped events so they
// surface in observability without halting ingestion.
type Recorder interface {
	RecordError(err dev.Error)
}

// Normalizer turns raw chain logs into the canonical, deduplicated, strictly
// ordered event sequence consumed by the projection engine. The three
// CreateListing parts are merged into one logical ListingCreated before
// anything is handed downstream.
type Normalizer interface {
	Normalize(logs []entity.RawLog) []entity.MarketplaceEvent
}

type normalizer struct {
	recorder Recorder
}

func NewNormalizer(recorder Recorder) Normalizer {
	return normalizer{recorder}
}

func (n normalizer) Normalize(logs []entity.RawLog) []entity.MarketplaceEvent {
	collected := make(map[string]entity.RawLog)
	for _, raw := range logs {
		if raw.Removed {
			// Reorg eviction. The canonical chain's logs for the height
			// follow in the same stream under new tx hashes.
			delete(collected, raw.EventId())
			continue
		}
		collected[raw.EventId()] = raw
	}

	ordered := make([]entity.RawLog, 0, len(collected))
	for _, raw := range collected {
		ordered = append(ordered, raw)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].BlockNum != ordered[j].BlockNum {
			return ordered[i].BlockNum < ordered[j].BlockNum
		}
		return ordered[i].LogIndex < ordered[j].LogIndex
	})

	merges := make(map[string]*listingMerge)
	events := make([]entity.MarketplaceEvent, 0, len(ordered))

	for _, raw := range ordered {
		switch entity.EventName(raw.EventName) {
		case entity.MpCreateListingEvent, entity.MpCreateListingTokenDetailsEvent, entity.MpCreateListingFeesEvent:
			if err := n.collectPart(merges, raw); err != nil {
				n.skip(raw, err)
			}
		default:
			e, err := n.decode(raw)
			if err != nil {
				n.skip(raw, err)
				continue
			}
			events = append(events, e)
		}
	}

	for _, merge := range merges {
		e, err := merge.event()
		if err != nil {
			// Fatal for this listing: it stays absent from the projection.
			zap.L().With(
				zap.Error(err),
				zap.String("txHash", merge.txHash),
				zap.Uint64("listingId", merge.listingId),
			).Error("Normalizer: CreateListing merge failed")
			n.recorder.RecordError(dev.NewError("normalizer", "merge", err, map[string]interface{}{
				"txHash":    merge.txHash,
				"listingId": merge.listingId,
			}))
			continue
		}
		events = append(events, e)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNum != events[j].BlockNum {
			return events[i].BlockNum < events[j].BlockNum
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events
}

func (n normalizer) skip(raw entity.RawLog, err error) {
	zap.L().With(
		zap.Error(err),
		zap.String("eventId", raw.EventId()),
		zap.String("event", raw.EventName),
	).Warn("Normalizer: Skipping malformed log")

	n.recorder.RecordError(dev.NewError("normalizer", "decode", err, map[string]interface{}{
		"eventId": raw.EventId(),
		"event":   raw.EventName,
	}))
}

func (n normalizer) decode(raw entity.RawLog) (entity.MarketplaceEvent, error) {
	listingId, err := raw.Args.GetUint64("listingId")
	if err != nil {
		return entity.MarketplaceEvent{}, err
	}

	e := entity.MarketplaceEvent{
		Id:              raw.EventId(),
		Name:            entity.EventName(raw.EventName),
		MarketplaceAddr: strings.ToLower(raw.ContractAddr),
		ChainId:         raw.ChainId,
		ListingId:       listingId,
		BlockNum:        raw.BlockNum,
		LogIndex:        raw.LogIndex,
		TxHash:          raw.TxHash,
		Timestamp:       raw.Timestamp,
	}

	switch e.Name {
	case entity.MpBidEvent:
		e.Bid, err = decodeBid(raw.Args)
	case entity.MpOfferEvent, entity.MpOfferAcceptedEvent, entity.MpOfferRescindedEvent:
		e.Offer, err = decodeOffer(raw.Args)
	case entity.MpPurchaseEvent:
		e.Purchase, err = decodePurchase(raw.Args)
	case entity.MpCancelListingEvent:
		e.Cancel = &entity.CancelPayload{RequestedBy: raw.Args["requestedBy"]}
	case entity.MpFinalizeListingEvent:
		e.Finalize = &entity.FinalizePayload{RequestedBy: raw.Args["requestedBy"]}
	default:
		err = fmt.Errorf("unhandled event: %s", raw.EventName)
	}

	if err != nil {
		return entity.MarketplaceEvent{}, err
	}

	return e, nil
}

func decodeBid(args entity.Args) (*entity.BidPayload, error) {
	bidder, err := args.GetAddress("bidder")
	if err != nil {
		return nil, err
	}

	amount, err := args.GetAmount("amount")
	if err != nil {
		return nil, err
	}

	referrer, _ := args.GetAddress("referrer")

	return &entity.BidPayload{Bidder: bidder, Amount: amount, Referrer: referrer}, nil
}

func decodeOffer(args entity.Args) (*entity.OfferPayload, error) {
	offerer, err := args.GetAddress("offerer")
	if err != nil {
		return nil, err
	}

	amount, _ := args.GetAmount("amount")

	return &entity.OfferPayload{Offerer: offerer, Amount: amount}, nil
}

func decodePurchase(args entity.Args) (*entity.PurchasePayload, error) {
	buyer, err := args.GetAddress("buyer")
	if err != nil {
		return nil, err
	}

	count, err := args.GetUint64("count")
	if err != nil {
		return nil, err
	}

	amount, err := args.GetAmount("amount")
	if err != nil {
		return nil, err
	}

	referrer, _ := args.GetAddress("referrer")

	return &entity.PurchasePayload{Buyer: buyer, Count: count, Amount: amount, Referrer: referrer}, nil
}
