package repository

import (
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"go.uber.org/zap"
)

const rewindPageSize = 100

// Rewinder handles deep reorgs past the confirmation depth. Every listing
// touched above the rewind height is deleted together with all of its child
// records, and the cursor drops to just before the earliest affected
// creation. The daemon then re-ingests the range and the engine rebuilds the
// aggregates deterministically.
type Rewinder interface {
	RewindToHeight(chainId uint64, contractAddr string, height uint64) error
}

type rewinder struct {
	elastic     elastic_search.Index
	listingRepo ListingRepository
	cursorRepo  CursorRepository
}

func NewRewinder(
	elastic elastic_search.Index,
	listingRepo ListingRepository,
	cursorRepo CursorRepository,
) Rewinder {
	return rewinder{elastic, listingRepo, cursorRepo}
}

func (r rewinder) RewindToHeight(chainId uint64, contractAddr string, height uint64) error {
	zap.L().With(
		zap.Uint64("chainId", chainId),
		zap.String("contractAddr", contractAddr),
		zap.Uint64("height", height),
	).Info("Rewinder: Rewinding to height")

	r.elastic.ClearRequests()

	replayFrom := height

	for {
		listings, _, err := r.listingRepo.GetListingsTouchedAfter(chainId, contractAddr, height, rewindPageSize, 1)
		if err != nil {
			return err
		}

		if len(listings) == 0 {
			break
		}

		for _, listing := range listings {
			if listing.BlockNum != 0 && listing.BlockNum-1 < replayFrom {
				replayFrom = listing.BlockNum - 1
			}

			if err := r.elastic.DeleteByListing(
				listing.ChainId,
				listing.MarketplaceAddr,
				listing.ListingId,
				elastic_search.ListingIndex.Get(),
				elastic_search.BidIndex.Get(),
				elastic_search.OfferIndex.Get(),
				elastic_search.PurchaseIndex.Get(),
				elastic_search.EscrowIndex.Get(),
			); err != nil {
				return err
			}

			zap.L().With(
				zap.Uint64("listingId", listing.ListingId),
				zap.Uint64("blockNum", listing.BlockNum),
			).Info("Rewinder: Deleted listing for replay")
		}
	}

	r.cursorRepo.SetCursor(entity.Cursor{
		ContractAddr:       contractAddr,
		ChainId:            chainId,
		LastProcessedBlock: replayFrom,
	})
	r.elastic.Persist()

	zap.L().With(
		zap.Uint64("height", height),
		zap.Uint64("replayFrom", replayFrom),
	).Info("Rewinder: Rewound to height")

	return nil
}
