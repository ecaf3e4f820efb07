package projection

import (
	"sync"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

// MemoryStore is a map backed Store used for replay verification and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	listings  map[string]entity.Listing
	bids      map[string]entity.Bid
	offers    map[string]entity.Offer
	purchases map[string]entity.Purchase
	escrows   map[string]entity.Escrow
	cursors   map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings:  make(map[string]entity.Listing),
		bids:      make(map[string]entity.Bid),
		offers:    make(map[string]entity.Offer),
		purchases: make(map[string]entity.Purchase),
		escrows:   make(map[string]entity.Escrow),
		cursors:   make(map[string]uint64),
	}
}

func (s *MemoryStore) GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, exists := s.listings[entity.CreateListingSlug(chainId, marketplaceAddr, listingId)]
	if !exists {
		return nil, ErrListingNotFound
	}

	return &listing, nil
}

func (s *MemoryStore) SaveListing(listing *entity.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.Slug()] = *listing
}

func (s *MemoryStore) GetBid(slug string) (*entity.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bid, exists := s.bids[slug]
	if !exists {
		return nil, ErrBidNotFound
	}

	return &bid, nil
}

func (s *MemoryStore) SaveBid(bid *entity.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[bid.Slug()] = *bid
}

func (s *MemoryStore) GetOffer(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) (*entity.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, exists := s.offers[entity.CreateOfferSlug(chainId, marketplaceAddr, listingId, offerer)]
	if !exists {
		return nil, ErrOfferNotFound
	}

	return &offer, nil
}

func (s *MemoryStore) SaveOffer(offer *entity.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[offer.Slug()] = *offer
}

func (s *MemoryStore) SavePurchase(purchase *entity.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[purchase.Slug()] = *purchase
}

func (s *MemoryStore) SaveEscrow(escrow *entity.Escrow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escrows[escrow.Slug()] = *escrow
}

func (s *MemoryStore) GetCursor(chainId uint64, contractAddr string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[entity.CreateCursorSlug(chainId, contractAddr)], nil
}

func (s *MemoryStore) SetCursor(chainId uint64, contractAddr string, blockNum uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[entity.CreateCursorSlug(chainId, contractAddr)] = blockNum
}

func (s *MemoryStore) Bids() []entity.Bid {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := make([]entity.Bid, 0, len(s.bids))
	for _, bid := range s.bids {
		bids = append(bids, bid)
	}
	return bids
}

func (s *MemoryStore) Purchases() []entity.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]entity.Purchase, 0, len(s.purchases))
	for _, purchase := range s.purchases {
		purchases = append(purchases, purchase)
	}
	return purchases
}

func (s *MemoryStore) Escrows() []entity.Escrow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	escrows := make([]entity.Escrow, 0, len(s.escrows))
	for _, escrow := range s.escrows {
		escrows = append(escrows, escrow)
	}
	return escrows
}
