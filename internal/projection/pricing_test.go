package projection

import (
	"testing"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

func TestCurrentPriceLinear(t *testing.T) {
	listing := entity.Listing{
		ListingType:    entity.DynamicPrice,
		InitialAmount:  "1000000",
		TotalAvailable: 100,
		TotalPerSale:   1,
		PriceCurve:     LinearCurve,
		PriceRateBPS:   500,
	}

	tests := []struct {
		totalSold uint64
		want      string
	}{
		{0, "1000000"},
		{1, "1050000"},
		{2, "1100000"},
		{10, "1500000"},
	}

	for _, tt := range tests {
		listing.TotalSold = tt.totalSold
		if got := CurrentPrice(listing); got.String() != tt.want {
			t.Errorf("CurrentPrice(totalSold=%d) = %s, want %s", tt.totalSold, got, tt.want)
		}
	}
}

func TestCurrentPriceExponential(t *testing.T) {
	listing := entity.Listing{
		ListingType:    entity.DynamicPrice,
		InitialAmount:  "1000000",
		TotalAvailable: 100,
		TotalPerSale:   1,
		PriceCurve:     ExponentialCurve,
		PriceRateBPS:   1000,
	}

	tests := []struct {
		totalSold uint64
		want      string
	}{
		{0, "1000000"},
		{1, "1100000"},
		{2, "1210000"},
		{3, "1331000"},
	}

	for _, tt := range tests {
		listing.TotalSold = tt.totalSold
		if got := CurrentPrice(listing); got.String() != tt.want {
			t.Errorf("CurrentPrice(totalSold=%d) = %s, want %s", tt.totalSold, got, tt.want)
		}
	}
}

func TestCurrentPriceCountsSalesNotUnits(t *testing.T) {
	listing := entity.Listing{
		ListingType:    entity.DynamicPrice,
		InitialAmount:  "1000000",
		TotalAvailable: 10,
		TotalPerSale:   2,
		PriceCurve:     LinearCurve,
		PriceRateBPS:   500,
		TotalSold:      4,
	}

	// 4 units at 2 per sale is 2 completed sales.
	if got := CurrentPrice(listing); got.String() != "1100000" {
		t.Errorf("CurrentPrice() = %s, want 1100000", got)
	}
}

func TestCurrentPriceNonDynamicListing(t *testing.T) {
	listing := entity.Listing{
		ListingType:   entity.FixedPrice,
		InitialAmount: "250000",
		TotalSold:     5,
	}

	if got := CurrentPrice(listing); got.String() != "250000" {
		t.Errorf("CurrentPrice() = %s, want 250000", got)
	}
}

func TestGetPriceStrategyDefaultsToLinear(t *testing.T) {
	if got := GetPriceStrategy("").Name(); got != LinearCurve {
		t.Errorf("GetPriceStrategy(\"\") = %s, want %s", got, LinearCurve)
	}
	if got := GetPriceStrategy("bogus").Name(); got != LinearCurve {
		t.Errorf("GetPriceStrategy(bogus) = %s, want %s", got, LinearCurve)
	}
	if got := GetPriceStrategy(ExponentialCurve).Name(); got != ExponentialCurve {
		t.Errorf("GetPriceStrategy(exponential) = %s, want %s", got, ExponentialCurve)
	}
}
