package projection

import (
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrOfferNotFound   = errors.New("offer not found")
)

// Store is the projection engine's view of durable state. Writes are staged
// by the implementation and flushed atomically per event batch, so a listing
// rollup and its child records commit together.
type Store interface {
	GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error)
	SaveListing(listing *entity.Listing)

	GetBid(slug string) (*entity.Bid, error)
	SaveBid(bid *entity.Bid)

	GetOffer(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) (*entity.Offer, error)
	SaveOffer(offer *entity.Offer)

	SavePurchase(purchase *entity.Purchase)
	SaveEscrow(escrow *entity.Escrow)

	GetCursor(chainId uint64, contractAddr string) (uint64, error)
	SetCursor(chainId uint64, contractAddr string, blockNum uint64)
}
