package projection

import (
	"errors"
	"math/big"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

var (
	ErrNegativeGross = errors.New("gross amount is negative")
	ErrFeesExceedBPS = errors.New("fees exceed 10000 bps")
)

var bpsDenominator = big.NewInt(10000)

// Settlement is the payout breakdown of one gross sale amount. The parts
// always sum exactly to the gross: the integer division remainder lands on
// the seller.
type Settlement struct {
	Seller      *big.Int
	Marketplace *big.Int
	Referrer    *big.Int
	Delivery    *big.Int
	Receivers   []*big.Int
}

func (s Settlement) Total() *big.Int {
	total := new(big.Int).Set(s.Seller)
	total.Add(total, s.Marketplace)
	total.Add(total, s.Referrer)
	total.Add(total, s.Delivery)
	for _, r := range s.Receivers {
		total.Add(total, r)
	}
	return total
}

// ComputeSettlement splits gross across seller, marketplace, referrer,
// delivery and any additional receivers using integer BPS arithmetic.
// deliverFixed is taken after the BPS fees and floored at whatever is left,
// so the seller share never goes negative.
func ComputeSettlement(gross *big.Int, fees entity.ListingFees, hasReferrer bool) (Settlement, error) {
	if gross.Sign() < 0 {
		return Settlement{}, ErrNegativeGross
	}

	if fees.TotalFeeBPS() > 10000 {
		return Settlement{}, ErrFeesExceedBPS
	}

	settlement := Settlement{
		Marketplace: bpsShare(gross, fees.MarketplaceBPS),
		Referrer:    big.NewInt(0),
		Delivery:    bpsShare(gross, fees.DeliverBPS),
		Receivers:   make([]*big.Int, len(fees.Receivers)),
	}

	if hasReferrer {
		settlement.Referrer = bpsShare(gross, fees.ReferrerBPS)
	}

	for idx, receiver := range fees.Receivers {
		settlement.Receivers[idx] = bpsShare(gross, receiver.BPS)
	}

	remaining := new(big.Int).Set(gross)
	remaining.Sub(remaining, settlement.Marketplace)
	remaining.Sub(remaining, settlement.Referrer)
	remaining.Sub(remaining, settlement.Delivery)
	for _, r := range settlement.Receivers {
		remaining.Sub(remaining, r)
	}

	fixed := parseAmount(fees.DeliverFixed)
	if fixed.Sign() > 0 {
		if fixed.Cmp(remaining) > 0 {
			fixed = new(big.Int).Set(remaining)
		}
		settlement.Delivery.Add(settlement.Delivery, fixed)
		remaining.Sub(remaining, fixed)
	}

	settlement.Seller = remaining

	return settlement, nil
}

func bpsShare(gross *big.Int, bps uint) *big.Int {
	share := new(big.Int).Mul(gross, big.NewInt(int64(bps)))
	return share.Div(share, bpsDenominator)
}

func parseAmount(value string) *big.Int {
	if value == "" {
		return big.NewInt(0)
	}

	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return big.NewInt(0)
	}

	return amount
}
