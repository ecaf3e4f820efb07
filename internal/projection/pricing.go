package projection

import (
	"math/big"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

// PriceStrategy derives the current unit price of a DYNAMIC_PRICE listing.
// The price is never stored; it is always a function of totalSold so every
// consumer reads the same number.
type PriceStrategy interface {
	Name() string
	CurrentPrice(listing entity.Listing) *big.Int
}

const (
	LinearCurve      = "linear"
	ExponentialCurve = "exponential"
)

// GetPriceStrategy resolves a listing's configured curve. Unknown or empty
// curves fall back to linear.
func GetPriceStrategy(curve string) PriceStrategy {
	switch curve {
	case ExponentialCurve:
		return exponentialStrategy{}
	default:
		return linearStrategy{}
	}
}

// CurrentPrice returns the price of the next unit of sale for a listing.
// Non-dynamic listings price at initialAmount.
func CurrentPrice(listing entity.Listing) *big.Int {
	if listing.ListingType != entity.DynamicPrice {
		return parseAmount(listing.InitialAmount)
	}

	return GetPriceStrategy(listing.PriceCurve).CurrentPrice(listing)
}

// linearStrategy moves the price by rateBPS of the initial amount for every
// completed sale: initial * (10000 + rate*sales) / 10000.
type linearStrategy struct{}

func (linearStrategy) Name() string {
	return LinearCurve
}

func (linearStrategy) CurrentPrice(listing entity.Listing) *big.Int {
	initial := parseAmount(listing.InitialAmount)
	sales := salesCount(listing)

	numerator := new(big.Int).SetUint64(listing.PriceRateBPS)
	numerator.Mul(numerator, new(big.Int).SetUint64(sales))
	numerator.Add(numerator, bpsDenominator)

	price := new(big.Int).Mul(initial, numerator)
	return price.Div(price, bpsDenominator)
}

// exponentialStrategy compounds rateBPS per completed sale:
// initial * (10000 + rate)^sales / 10000^sales.
type exponentialStrategy struct{}

func (exponentialStrategy) Name() string {
	return ExponentialCurve
}

func (exponentialStrategy) CurrentPrice(listing entity.Listing) *big.Int {
	initial := parseAmount(listing.InitialAmount)
	sales := salesCount(listing)

	factor := new(big.Int).Add(bpsDenominator, new(big.Int).SetUint64(listing.PriceRateBPS))
	exp := new(big.Int).SetUint64(sales)

	price := new(big.Int).Mul(initial, new(big.Int).Exp(factor, exp, nil))
	return price.Div(price, new(big.Int).Exp(bpsDenominator, exp, nil))
}

func salesCount(listing entity.Listing) uint64 {
	if listing.TotalPerSale == 0 {
		return listing.TotalSold
	}
	return listing.TotalSold / listing.TotalPerSale
}
