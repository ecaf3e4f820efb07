package reconciliation

import (
	"context"
	"strconv"
	"time"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/ethereum"
	"github.com/ZilDuck/marketplace-indexer/internal/event"
	"github.com/ZilDuck/marketplace-indexer/internal/repository"
	"go.uber.org/zap"
)

// Checker compares projected listing state against authoritative contract
// reads. Divergence is reported, never auto-corrected: a mismatch means an
// ingestion gap or an unreconciled reorg and resolution is operator driven.
type Checker interface {
	CheckListing(listing entity.Listing) (entity.Reconciliation, error)
	CheckActive(ctx context.Context, size int) error
}

type checker struct {
	ethereum           ethereum.Service
	listingRepo        repository.ListingRepository
	reconciliationRepo repository.ReconciliationRepository
}

func NewChecker(
	ethereum ethereum.Service,
	listingRepo repository.ListingRepository,
	reconciliationRepo repository.ReconciliationRepository,
) Checker {
	return checker{ethereum, listingRepo, reconciliationRepo}
}

func (c checker) CheckListing(listing entity.Listing) (entity.Reconciliation, error) {
	state, err := c.ethereum.GetListingState(listing.MarketplaceAddr, listing.ListingId)
	if err != nil {
		zap.L().With(
			zap.Error(err),
			zap.Uint64("listingId", listing.ListingId),
		).Error("Reconciliation: Failed to read contract state")
		return entity.Reconciliation{}, err
	}

	reconciliation := Compare(listing, *state)

	c.reconciliationRepo.SaveReconciliation(reconciliation)

	if !reconciliation.Match {
		zap.L().With(
			zap.Uint64("listingId", listing.ListingId),
			zap.String("marketplaceAddr", listing.MarketplaceAddr),
		).Warn("Reconciliation: Mismatch detected")
		event.EmitEvent(event.ReconcileMismatchEvent, reconciliation)
	}

	return reconciliation, nil
}

// CheckActive sweeps every ACTIVE listing page by page.
func (c checker) CheckActive(ctx context.Context, size int) error {
	page := 1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		listings, _, err := c.listingRepo.GetActiveListings(size, page)
		if err != nil {
			return err
		}

		if len(listings) == 0 {
			return nil
		}

		for _, listing := range listings {
			if _, err := c.CheckListing(listing); err != nil {
				continue
			}
		}
		page++
	}
}

// Compare produces the per-field diff between the projection and the
// contract's ground truth.
func Compare(listing entity.Listing, state ethereum.ListingState) entity.Reconciliation {
	fields := []entity.FieldDiff{
		diffUint64("totalAvailable", listing.TotalAvailable, state.TotalAvailable),
		diffUint64("totalSold", listing.TotalSold, state.TotalSold),
		diffUint64("totalPerSale", listing.TotalPerSale, state.TotalPerSale),
		diffBool("finalized", listing.Finalized, state.Finalized),
	}

	match := true
	for _, field := range fields {
		if !field.Match {
			match = false
		}
	}

	return entity.Reconciliation{
		ListingId:       listing.ListingId,
		MarketplaceAddr: listing.MarketplaceAddr,
		ChainId:         listing.ChainId,
		Fields:          fields,
		Match:           match,
		CheckedAt:       time.Now().UTC(),
	}
}

func diffUint64(name string, projected, onChain uint64) entity.FieldDiff {
	return entity.FieldDiff{
		Name:      name,
		Projected: strconv.FormatUint(projected, 10),
		OnChain:   strconv.FormatUint(onChain, 10),
		Match:     projected == onChain,
	}
}

func diffBool(name string, projected, onChain bool) entity.FieldDiff {
	return entity.FieldDiff{
		Name:      name,
		Projected: strconv.FormatBool(projected),
		OnChain:   strconv.FormatBool(onChain),
		Match:     projected == onChain,
	}
}
