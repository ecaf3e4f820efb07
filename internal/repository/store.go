package repository

import (
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/projection"
)

// projectionStore adapts the elastic request buffer and repositories to the
// projection engine's Store contract. Writes are staged in the buffer and
// flushed together, so one event's rollup and child records land atomically.
type projectionStore struct {
	elastic     elastic_search.Index
	listingRepo ListingRepository
	bidRepo     BidRepository
	offerRepo   OfferRepository
	cursorRepo  CursorRepository
}

func NewProjectionStore(
	elastic elastic_search.Index,
	listingRepo ListingRepository,
	bidRepo BidRepository,
	offerRepo OfferRepository,
	cursorRepo CursorRepository,
) projection.Store {
	return projectionStore{elastic, listingRepo, bidRepo, offerRepo, cursorRepo}
}

func (s projectionStore) GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error) {
	listing, err := s.listingRepo.GetListing(chainId, marketplaceAddr, listingId)
	if errors.Is(err, ErrListingNotFound) {
		return nil, projection.ErrListingNotFound
	}

	return listing, err
}

func (s projectionStore) SaveListing(listing *entity.Listing) {
	s.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), *listing)
}

func (s projectionStore) GetBid(slug string) (*entity.Bid, error) {
	bid, err := s.bidRepo.GetBid(slug)
	if errors.Is(err, ErrBidNotFound) {
		return nil, projection.ErrBidNotFound
	}

	return bid, err
}

func (s projectionStore) SaveBid(bid *entity.Bid) {
	s.elastic.AddUpdateRequest(elastic_search.BidIndex.Get(), *bid)
}

func (s projectionStore) GetOffer(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) (*entity.Offer, error) {
	offer, err := s.offerRepo.GetOffer(chainId, marketplaceAddr, listingId, offerer)
	if errors.Is(err, ErrOfferNotFound) {
		return nil, projection.ErrOfferNotFound
	}

	return offer, err
}

func (s projectionStore) SaveOffer(offer *entity.Offer) {
	s.elastic.AddUpdateRequest(elastic_search.OfferIndex.Get(), *offer)
}

func (s projectionStore) SavePurchase(purchase *entity.Purchase) {
	s.elastic.AddIndexRequest(elastic_search.PurchaseIndex.Get(), *purchase)
}

func (s projectionStore) SaveEscrow(escrow *entity.Escrow) {
	s.elastic.AddIndexRequest(elastic_search.EscrowIndex.Get(), *escrow)
}

func (s projectionStore) GetCursor(chainId uint64, contractAddr string) (uint64, error) {
	cursor, err := s.cursorRepo.GetCursor(chainId, contractAddr)
	if errors.Is(err, ErrCursorNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return cursor.LastProcessedBlock, nil
}

func (s projectionStore) SetCursor(chainId uint64, contractAddr string, blockNum uint64) {
	s.cursorRepo.SetCursor(entity.Cursor{
		ContractAddr:       contractAddr,
		ChainId:            chainId,
		LastProcessedBlock: blockNum,
	})
}
