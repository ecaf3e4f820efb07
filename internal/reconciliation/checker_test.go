package reconciliation

import (
	"errors"
	"testing"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/ethereum"
	"github.com/ZilDuck/marketplace-indexer/internal/repository"
)

type mockEthereum struct {
	state *ethereum.ListingState
	err   error
}

func (m mockEthereum) GetLatestBlockNum() (uint64, error) {
	return 0, nil
}

func (m mockEthereum) GetListingState(marketplaceAddr string, listingId uint64) (*ethereum.ListingState, error) {
	return m.state, m.err
}

type mockListingRepo struct {
	repository.ListingRepository
}

type mockReconciliationRepo struct {
	saved []entity.Reconciliation
}

func (m *mockReconciliationRepo) SaveReconciliation(reconciliation entity.Reconciliation) {
	m.saved = append(m.saved, reconciliation)
}

func (m *mockReconciliationRepo) GetMismatches(size, page int) ([]entity.Reconciliation, int64, error) {
	return nil, 0, nil
}

func testListing() entity.Listing {
	return entity.Listing{
		ListingId:       7,
		MarketplaceAddr: "0xmarket",
		ChainId:         1,
		ListingType:     entity.FixedPrice,
		TotalAvailable:  10,
		TotalSold:       3,
		TotalPerSale:    2,
		Status:          entity.ListingActive,
	}
}

func TestCompareDetectsTotalSoldDrift(t *testing.T) {
	state := ethereum.ListingState{
		TotalAvailable: 10,
		TotalSold:      4,
		TotalPerSale:   2,
		Finalized:      false,
	}

	result := Compare(testListing(), state)

	if result.Match {
		t.Error("match = true, want false")
	}

	for _, field := range result.Fields {
		switch field.Name {
		case "totalSold":
			if field.Match {
				t.Error("totalSold match = true, want false")
			}
			if field.Projected != "3" || field.OnChain != "4" {
				t.Errorf("totalSold = %s vs %s, want 3 vs 4", field.Projected, field.OnChain)
			}
		default:
			if !field.Match {
				t.Errorf("%s match = false, want true", field.Name)
			}
		}
	}
}

func TestCompareMatchingState(t *testing.T) {
	state := ethereum.ListingState{
		TotalAvailable: 10,
		TotalSold:      3,
		TotalPerSale:   2,
		Finalized:      false,
	}

	result := Compare(testListing(), state)

	if !result.Match {
		t.Errorf("match = false, want true: %+v", result.Fields)
	}
	if len(result.Fields) != 4 {
		t.Errorf("fields = %d, want 4", len(result.Fields))
	}
}

func TestCheckListingSavesReport(t *testing.T) {
	reconciliationRepo := &mockReconciliationRepo{}
	checker := NewChecker(
		mockEthereum{state: &ethereum.ListingState{TotalAvailable: 10, TotalSold: 4, TotalPerSale: 2}},
		mockListingRepo{},
		reconciliationRepo,
	)

	result, err := checker.CheckListing(testListing())
	if err != nil {
		t.Fatalf("CheckListing() error = %v", err)
	}

	if result.Match {
		t.Error("match = true, want false")
	}
	if len(reconciliationRepo.saved) != 1 {
		t.Fatalf("saved reports = %d, want 1", len(reconciliationRepo.saved))
	}
	if reconciliationRepo.saved[0].ListingId != 7 {
		t.Errorf("saved listingId = %d, want 7", reconciliationRepo.saved[0].ListingId)
	}
}

func TestCheckListingContractReadFailure(t *testing.T) {
	reconciliationRepo := &mockReconciliationRepo{}
	checker := NewChecker(
		mockEthereum{err: errors.New("rpc unavailable")},
		mockListingRepo{},
		reconciliationRepo,
	)

	if _, err := checker.CheckListing(testListing()); err == nil {
		t.Error("CheckListing() error = nil, want rpc failure")
	}
	if len(reconciliationRepo.saved) != 0 {
		t.Errorf("saved reports = %d, want 0", len(reconciliationRepo.saved))
	}
}
