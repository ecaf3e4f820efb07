package projection

import (
	"errors"
	"testing"
	"time"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/event"
)

// brokenStore fails every listing read the way an unreachable cluster would.
type brokenStore struct {
	*MemoryStore
	err error
}

func (s brokenStore) GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error) {
	return nil, s.err
}

func TestApplyPropagatesStorageFailure(t *testing.T) {
	transportErr := errors.New("elastic: connection refused")
	engine := NewEngine(brokenStore{NewMemoryStore(), transportErr})

	if err := engine.Apply(bidEvent(1, 110, 1100, "0xbidder", "1000000")); !errors.Is(err, transportErr) {
		t.Errorf("Apply(bid) error = %v, want the storage failure so the cursor stalls", err)
	}

	if err := engine.Apply(createdEvent(1, entity.IndividualAuction, nil)); !errors.Is(err, transportErr) {
		t.Errorf("Apply(created) error = %v, want the storage failure so the cursor stalls", err)
	}
}

func TestApplyRejectionsReturnNil(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store)

	// Bid against a listing that never existed is an anomaly, not a halt.
	if err := engine.Apply(bidEvent(1, 110, 1100, "0xbidder", "1000000")); err != nil {
		t.Errorf("Apply(bid on missing listing) error = %v, want nil", err)
	}

	if err := engine.Apply(createdEvent(2, entity.FixedPrice, nil)); err != nil {
		t.Fatalf("Apply(created) error = %v", err)
	}

	duplicate := createdEvent(2, entity.FixedPrice, nil)
	duplicate.Id = "0xother-0"
	duplicate.TxHash = "0xother"
	if err := engine.Apply(duplicate); err != nil {
		t.Errorf("Apply(duplicate create) error = %v, want nil", err)
	}
}

func TestAcceptRescindedOfferRejected(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store)

	if err := engine.Apply(createdEvent(1, entity.FixedPrice, func(p *entity.ListingCreatedPayload) {
		p.TotalAvailable = 10
	})); err != nil {
		t.Fatalf("Apply(created) error = %v", err)
	}
	if err := engine.Apply(offerEvent(1, 110, entity.MpOfferEvent, "0xofferer", "500000")); err != nil {
		t.Fatalf("Apply(offer) error = %v", err)
	}
	if err := engine.Apply(offerEvent(1, 111, entity.MpOfferRescindedEvent, "0xofferer", "500000")); err != nil {
		t.Fatalf("Apply(rescind) error = %v", err)
	}

	if err := engine.Apply(offerEvent(1, 112, entity.MpOfferAcceptedEvent, "0xofferer", "500000")); err != nil {
		t.Fatalf("Apply(accept rescinded) error = %v, want nil rejection", err)
	}

	offer, err := store.GetOffer(testChain, testMarket, 1, "0xofferer")
	if err != nil {
		t.Fatalf("GetOffer error = %v", err)
	}
	if offer.Status != entity.OfferRescinded {
		t.Errorf("offer status = %s, want RESCINDED", offer.Status)
	}

	listing := mustGetListing(t, store, 1)
	if listing.Status != entity.ListingActive {
		t.Errorf("listing status = %s, accepting a rescinded offer must not finalize", listing.Status)
	}
	if len(store.Escrows()) != 0 {
		t.Errorf("got %d escrows, accepting a rescinded offer must not settle", len(store.Escrows()))
	}
}

func TestDomainEventsEmittedAfterFlush(t *testing.T) {
	received := make(chan interface{}, 8)
	event.AddEventListener(event.ListingCreatedEvent, func(msg interface{}) {
		received <- msg
	})

	store := NewMemoryStore()
	engine := NewEngine(store)

	if err := engine.Apply(createdEvent(1, entity.FixedPrice, nil)); err != nil {
		t.Fatalf("Apply(created) error = %v", err)
	}

	select {
	case <-received:
		t.Fatal("domain event emitted before the batch was committed")
	case <-time.After(50 * time.Millisecond):
	}

	engine.FlushEvents()

	select {
	case msg := <-received:
		if _, ok := msg.(entity.Listing); !ok {
			t.Errorf("payload type = %T, want entity.Listing", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no domain event after flush")
	}
}

func TestDiscardEventsDropsBufferedEmissions(t *testing.T) {
	received := make(chan interface{}, 8)
	event.AddEventListener(event.ListingCancelledEvent, func(msg interface{}) {
		received <- msg
	})

	store := NewMemoryStore()
	engine := NewEngine(store)

	if err := engine.Apply(createdEvent(1, entity.FixedPrice, nil)); err != nil {
		t.Fatalf("Apply(created) error = %v", err)
	}
	if err := engine.Apply(controlEvent(1, 110, entity.MpCancelListingEvent)); err != nil {
		t.Fatalf("Apply(cancel) error = %v", err)
	}

	engine.DiscardEvents()
	engine.FlushEvents()

	select {
	case <-received:
		t.Fatal("discarded domain event was still emitted")
	case <-time.After(50 * time.Millisecond):
	}
}
