package projection

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/event"
	"go.uber.org/zap"
)

var (
	ErrListingTerminal     = errors.New("listing is terminal")
	ErrEventAlreadyApplied = errors.New("event already applied")
	ErrBidBelowIncrement   = errors.New("bid below minimum increment")
	ErrWrongListingType    = errors.New("event not valid for listing type")
	ErrExceedsAvailability = errors.New("purchase exceeds availability")
	ErrCancelWithSales     = errors.New("cancel on listing with sales")
	ErrMissingPayload      = errors.New("event payload missing")
	ErrInvalidPayload      = errors.New("event payload invalid")
	ErrUnknownEvent        = errors.New("unknown event name")
	ErrListingExists       = errors.New("listing already exists")
	ErrOfferNotPending     = errors.New("offer is not pending")
)

// rejections are events that are invalid against current state. One bad event
// never halts the stream. Any error outside this list is a storage failure
// and propagates to the caller, stalling the cursor.
var rejections = []error{
	ErrListingTerminal,
	ErrBidBelowIncrement,
	ErrWrongListingType,
	ErrExceedsAvailability,
	ErrCancelWithSales,
	ErrMissingPayload,
	ErrInvalidPayload,
	ErrUnknownEvent,
	ErrListingExists,
	ErrOfferNotPending,
	ErrFeesExceedBPS,
	ErrListingNotFound,
	ErrBidNotFound,
	ErrOfferNotFound,
}

// Engine is the single writer over all listing aggregates. Apply is a
// deterministic reducer: the same ordered event sequence always produces the
// same store state, and re-applying an event is a no-op. Domain events are
// buffered until FlushEvents, which the caller invokes once the batch has
// been committed.
type Engine interface {
	Apply(e entity.MarketplaceEvent) error
	FlushEvents()
	DiscardEvents()
}

type emission struct {
	eventType event.Type
	payload   interface{}
}

type engine struct {
	store   Store
	pending *[]emission
}

func NewEngine(store Store) Engine {
	return engine{store, &[]emission{}}
}

// Apply validates the event against current state, then stages every write.
// Business rule rejections are logged and swallowed; storage failures
// propagate so the caller can discard the batch and retry.
func (p engine) Apply(e entity.MarketplaceEvent) error {
	var err error

	switch e.Name {
	case entity.ListingCreated:
		err = p.applyCreated(e)
	case entity.MpBidEvent:
		err = p.applyBid(e)
	case entity.MpOfferEvent:
		err = p.applyOffer(e)
	case entity.MpOfferAcceptedEvent:
		err = p.applyOfferAccepted(e)
	case entity.MpOfferRescindedEvent:
		err = p.applyOfferRescinded(e)
	case entity.MpPurchaseEvent:
		err = p.applyPurchase(e)
	case entity.MpCancelListingEvent:
		err = p.applyCancel(e)
	case entity.MpFinalizeListingEvent:
		err = p.applyFinalize(e)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, e.Name)
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, ErrEventAlreadyApplied) {
		zap.L().With(zap.String("eventId", e.Id)).Debug("Projection: Event already applied")
		return nil
	}

	if !isRejection(err) {
		return err
	}

	zap.L().With(
		zap.Error(err),
		zap.String("eventId", e.Id),
		zap.String("event", string(e.Name)),
		zap.Uint64("listingId", e.ListingId),
	).Warn("Projection: Event rejected")

	return nil
}

func isRejection(err error) bool {
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return true
		}
	}

	return false
}

// FlushEvents emits every domain event buffered by the batch. Called after
// the storage flush so consumers only hear about committed transitions.
func (p engine) FlushEvents() {
	for _, em := range *p.pending {
		event.EmitEvent(em.eventType, em.payload)
	}
	*p.pending = (*p.pending)[:0]
}

// DiscardEvents drops buffered domain events alongside a discarded batch.
func (p engine) DiscardEvents() {
	*p.pending = (*p.pending)[:0]
}

func (p engine) emit(eventType event.Type, payload interface{}) {
	*p.pending = append(*p.pending, emission{eventType, payload})
}

func (p engine) applyCreated(e entity.MarketplaceEvent) error {
	if e.Created == nil {
		return ErrMissingPayload
	}

	existing, err := p.store.GetListing(e.ChainId, e.MarketplaceAddr, e.ListingId)
	if err == nil {
		if existing.LastEventId == e.Id {
			return ErrEventAlreadyApplied
		}
		return fmt.Errorf("listing %d: %w", e.ListingId, ErrListingExists)
	}
	if !errors.Is(err, ErrListingNotFound) {
		return err
	}

	created := *e.Created

	if created.Fees.TotalFeeBPS() > 10000 {
		return fmt.Errorf("listing %d refused: %w", e.ListingId, ErrFeesExceedBPS)
	}
	if created.MinIncrementBPS > 10000 {
		return fmt.Errorf("listing %d minIncrementBps out of range: %w", e.ListingId, ErrInvalidPayload)
	}

	listing := entity.Listing{
		ListingId:         e.ListingId,
		MarketplaceAddr:   e.MarketplaceAddr,
		ChainId:           e.ChainId,
		ListingType:       created.ListingType,
		TokenSpec:         created.TokenSpec,
		Lazy:              created.Lazy,
		TokenAddr:         created.TokenAddr,
		TokenId:           created.TokenId,
		Seller:            created.Seller,
		InitialAmount:     created.InitialAmount,
		TotalAvailable:    created.TotalAvailable,
		TotalPerSale:      created.TotalPerSale,
		ExtensionInterval: created.ExtensionInterval,
		MinIncrementBPS:   created.MinIncrementBPS,
		Erc20:             created.Erc20,
		IdentityVerifier:  created.IdentityVerifier,
		Fees:              created.Fees,
		StartTime:         created.StartTime,
		EndTime:           created.EndTime,
		PriceCurve:        created.PriceCurve,
		PriceRateBPS:      created.PriceRateBPS,
		Status:            entity.ListingActive,
		BlockNum:          e.BlockNum,
		TxID:              e.TxHash,
	}
	p.stamp(&listing, e)

	p.store.SaveListing(&listing)
	p.emit(event.ListingCreatedEvent, listing)

	return nil
}

func (p engine) applyBid(e entity.MarketplaceEvent) error {
	if e.Bid == nil {
		return ErrMissingPayload
	}

	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	if listing.ListingType != entity.IndividualAuction {
		return fmt.Errorf("bid on %s listing: %w", listing.ListingType, ErrWrongListingType)
	}

	amount, ok := new(big.Int).SetString(e.Bid.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return fmt.Errorf("bid amount %s: %w", e.Bid.Amount, ErrInvalidPayload)
	}

	if listing.HighestBid != nil {
		if !meetsIncrement(amount, parseAmount(listing.HighestBid.Amount), listing.MinIncrementBPS) {
			return fmt.Errorf("bid %s against highest %s: %w", e.Bid.Amount, listing.HighestBid.Amount, ErrBidBelowIncrement)
		}
	}

	// A zero startTime means the configured endTime is a duration that only
	// starts counting on the first bid.
	if !listing.HasBid && listing.StartTime == 0 {
		listing.StartTime = e.Timestamp
		listing.EndTime = e.Timestamp + listing.EndTime
	} else if listing.ExtensionInterval > 0 && e.Timestamp+listing.ExtensionInterval > listing.EndTime {
		listing.EndTime = e.Timestamp + listing.ExtensionInterval
	}

	if listing.HighestBid != nil {
		outbid, err := p.store.GetBid(listing.HighestBid.Slug())
		if err != nil {
			if !errors.Is(err, ErrBidNotFound) {
				return err
			}
			zap.L().With(zap.Error(err), zap.String("slug", listing.HighestBid.Slug())).
				Error("Projection: Outbid record not found")
		} else {
			outbid.Refunded = true
			p.store.SaveBid(outbid)
		}
	}

	bid := entity.Bid{
		ListingId:       e.ListingId,
		MarketplaceAddr: e.MarketplaceAddr,
		ChainId:         e.ChainId,
		Bidder:          e.Bid.Bidder,
		Amount:          e.Bid.Amount,
		Referrer:        e.Bid.Referrer,
		Timestamp:       e.Timestamp,
		BlockNum:        e.BlockNum,
		LogIndex:        e.LogIndex,
		TxID:            e.TxHash,
	}

	listing.HasBid = true
	listing.HighestBid = &bid
	p.stamp(listing, e)

	p.store.SaveBid(&bid)
	p.store.SaveListing(listing)
	p.emit(event.BidAcceptedEvent, bid)

	return nil
}

func (p engine) applyOffer(e entity.MarketplaceEvent) error {
	if e.Offer == nil {
		return ErrMissingPayload
	}

	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	offer := entity.Offer{
		ListingId:       e.ListingId,
		MarketplaceAddr: e.MarketplaceAddr,
		ChainId:         e.ChainId,
		Offerer:         e.Offer.Offerer,
		Amount:          e.Offer.Amount,
		Timestamp:       e.Timestamp,
		Status:          entity.OfferPending,
		BlockNum:        e.BlockNum,
		LogIndex:        e.LogIndex,
		TxID:            e.TxHash,
	}

	p.stamp(listing, e)

	p.store.SaveOffer(&offer)
	p.store.SaveListing(listing)
	p.emit(event.OfferMadeEvent, offer)

	return nil
}

func (p engine) applyOfferAccepted(e entity.MarketplaceEvent) error {
	if e.Offer == nil {
		return ErrMissingPayload
	}

	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	offer, err := p.store.GetOffer(e.ChainId, e.MarketplaceAddr, e.ListingId, e.Offer.Offerer)
	if err != nil {
		return err
	}

	if offer.Status != entity.OfferPending {
		return fmt.Errorf("offer %s is %s: %w", offer.Slug(), offer.Status, ErrOfferNotPending)
	}

	offer.Status = entity.OfferAccepted

	listing.Status = entity.ListingFinalized
	listing.Finalized = true
	listing.OffersAccepted = true
	p.stamp(listing, e)

	if err := p.settle(listing, parseAmount(offer.Amount), "", e.Id); err != nil {
		return err
	}

	p.store.SaveOffer(offer)
	p.store.SaveListing(listing)
	p.emit(event.OfferAcceptedEvent, *offer)
	p.emit(event.ListingFinalizedEvent, *listing)

	return nil
}

func (p engine) applyOfferRescinded(e entity.MarketplaceEvent) error {
	if e.Offer == nil {
		return ErrMissingPayload
	}

	offer, err := p.store.GetOffer(e.ChainId, e.MarketplaceAddr, e.ListingId, e.Offer.Offerer)
	if err != nil {
		return err
	}

	// Rescinding a PENDING offer is legal even after the listing finalized;
	// the listing itself is untouched.
	if offer.Status != entity.OfferPending {
		return fmt.Errorf("offer %s is %s: %w", offer.Slug(), offer.Status, ErrOfferNotPending)
	}

	offer.Status = entity.OfferRescinded
	p.store.SaveOffer(offer)

	return nil
}

func (p engine) applyPurchase(e entity.MarketplaceEvent) error {
	if e.Purchase == nil {
		return ErrMissingPayload
	}

	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	if listing.ListingType != entity.FixedPrice && listing.ListingType != entity.DynamicPrice {
		return fmt.Errorf("purchase on %s listing: %w", listing.ListingType, ErrWrongListingType)
	}

	units := e.Purchase.Count * listing.TotalPerSale
	if listing.TotalSold+units > listing.TotalAvailable {
		return fmt.Errorf("purchase of %d units with %d/%d sold: %w",
			units, listing.TotalSold, listing.TotalAvailable, ErrExceedsAvailability)
	}

	purchase := entity.Purchase{
		ListingId:       e.ListingId,
		MarketplaceAddr: e.MarketplaceAddr,
		ChainId:         e.ChainId,
		Buyer:           e.Purchase.Buyer,
		Count:           e.Purchase.Count,
		Amount:          e.Purchase.Amount,
		Referrer:        e.Purchase.Referrer,
		Timestamp:       e.Timestamp,
		BlockNum:        e.BlockNum,
		LogIndex:        e.LogIndex,
		TxID:            e.TxHash,
	}

	listing.TotalSold += units
	p.stamp(listing, e)

	if err := p.settle(listing, parseAmount(purchase.Amount), purchase.Referrer, e.Id); err != nil {
		return err
	}

	finalized := false
	if listing.IsSoldOut() {
		listing.Status = entity.ListingFinalized
		listing.Finalized = true
		finalized = true
	}

	p.store.SavePurchase(&purchase)
	p.store.SaveListing(listing)
	p.emit(event.PurchaseMadeEvent, purchase)
	if finalized {
		p.emit(event.ListingFinalizedEvent, *listing)
	}

	return nil
}

func (p engine) applyCancel(e entity.MarketplaceEvent) error {
	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	if listing.TotalSold > 0 || listing.HasBid || listing.OffersAccepted {
		return fmt.Errorf("listing %d: %w", e.ListingId, ErrCancelWithSales)
	}

	listing.Status = entity.ListingCancelled
	p.stamp(listing, e)

	p.store.SaveListing(listing)
	p.emit(event.ListingCancelledEvent, *listing)

	return nil
}

func (p engine) applyFinalize(e entity.MarketplaceEvent) error {
	listing, err := p.loadActive(e)
	if err != nil {
		return err
	}

	if listing.HasBid && listing.HighestBid != nil {
		if err := p.settle(listing, parseAmount(listing.HighestBid.Amount), listing.HighestBid.Referrer, e.Id); err != nil {
			return err
		}

		bid, err := p.store.GetBid(listing.HighestBid.Slug())
		if err != nil {
			if !errors.Is(err, ErrBidNotFound) {
				return err
			}
		} else {
			bid.Settled = true
			listing.HighestBid = bid
			p.store.SaveBid(bid)
		}
	}

	listing.Status = entity.ListingFinalized
	listing.Finalized = true
	p.stamp(listing, e)

	p.store.SaveListing(listing)
	p.emit(event.ListingFinalizedEvent, *listing)

	return nil
}

// loadActive fetches the event's listing and enforces the idempotence and
// terminal state guards shared by every mutating event.
func (p engine) loadActive(e entity.MarketplaceEvent) (*entity.Listing, error) {
	listing, err := p.store.GetListing(e.ChainId, e.MarketplaceAddr, e.ListingId)
	if err != nil {
		return nil, err
	}

	if listing.LastEventBlock > e.BlockNum ||
		(listing.LastEventBlock == e.BlockNum && listing.LastEventLogIndex >= e.LogIndex) {
		return nil, ErrEventAlreadyApplied
	}

	if listing.IsTerminal() {
		return nil, fmt.Errorf("listing %d is %s: %w", e.ListingId, listing.Status, ErrListingTerminal)
	}

	return listing, nil
}

func (p engine) stamp(listing *entity.Listing, e entity.MarketplaceEvent) {
	listing.LastEventId = e.Id
	listing.LastEventBlock = e.BlockNum
	listing.LastEventLogIndex = e.LogIndex
}

// settle splits gross across all receivers and stages one escrow record per
// non-zero share. The escrows of one sourceEventId sum exactly to gross.
func (p engine) settle(listing *entity.Listing, gross *big.Int, referrer string, sourceEventId string) error {
	settlement, err := ComputeSettlement(gross, listing.Fees, referrer != "")
	if err != nil {
		return err
	}

	p.stageEscrow(listing, listing.Seller, settlement.Seller, "seller", sourceEventId)
	p.stageEscrow(listing, listing.MarketplaceAddr, settlement.Marketplace, "marketplace", sourceEventId)
	p.stageEscrow(listing, referrer, settlement.Referrer, "referrer", sourceEventId)
	p.stageEscrow(listing, listing.MarketplaceAddr, settlement.Delivery, "delivery", sourceEventId)
	for idx, amount := range settlement.Receivers {
		p.stageEscrow(listing, listing.Fees.Receivers[idx].Receiver, amount, "receiver", sourceEventId)
	}

	return nil
}

func (p engine) stageEscrow(listing *entity.Listing, receiver string, amount *big.Int, role, sourceEventId string) {
	if amount == nil || amount.Sign() == 0 || receiver == "" {
		return
	}

	p.store.SaveEscrow(&entity.Escrow{
		ListingId:       listing.ListingId,
		MarketplaceAddr: listing.MarketplaceAddr,
		ChainId:         listing.ChainId,
		Receiver:        receiver,
		Erc20:           listing.Erc20,
		Amount:          amount.String(),
		SourceEventId:   sourceEventId,
		Role:            role,
	})
}

// meetsIncrement reports whether amount clears highest plus minIncrementBPS,
// in integer arithmetic: amount * 10000 >= highest * (10000 + bps).
func meetsIncrement(amount, highest *big.Int, minIncrementBPS uint) bool {
	lhs := new(big.Int).Mul(amount, bpsDenominator)
	rhs := new(big.Int).Mul(highest, new(big.Int).Add(bpsDenominator, big.NewInt(int64(minIncrementBPS))))
	return lhs.Cmp(rhs) >= 0
}
