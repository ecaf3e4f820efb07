package projection

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name        string
		gross       string
		fees        entity.ListingFees
		hasReferrer bool
		seller      string
		marketplace string
		referrer    string
		delivery    string
		receivers   []string
	}{
		{
			name:  "marketplace and referrer shares",
			gross: "1000000",
			fees: entity.ListingFees{
				MarketplaceBPS: 250,
				ReferrerBPS:    100,
				Receivers:      []entity.FeeReceiver{{Receiver: "0xr1", BPS: 0}},
			},
			hasReferrer: true,
			seller:      "965000",
			marketplace: "25000",
			referrer:    "10000",
			delivery:    "0",
			receivers:   []string{"0"},
		},
		{
			name:  "referrer share returns to seller without referrer",
			gross: "1000000",
			fees: entity.ListingFees{
				MarketplaceBPS: 250,
				ReferrerBPS:    100,
			},
			hasReferrer: false,
			seller:      "975000",
			marketplace: "25000",
			referrer:    "0",
			delivery:    "0",
		},
		{
			name:  "fixed delivery fee after bps",
			gross: "1000000",
			fees: entity.ListingFees{
				MarketplaceBPS: 500,
				DeliverFixed:   "1000",
			},
			seller:      "949000",
			marketplace: "50000",
			referrer:    "0",
			delivery:    "1000",
		},
		{
			name:  "fixed delivery fee floored at remaining",
			gross: "100",
			fees: entity.ListingFees{
				MarketplaceBPS: 5000,
				DeliverFixed:   "1000",
			},
			seller:      "0",
			marketplace: "50",
			referrer:    "0",
			delivery:    "50",
		},
		{
			name:  "rounding remainder lands on seller",
			gross: "999",
			fees: entity.ListingFees{
				MarketplaceBPS: 333,
				Receivers:      []entity.FeeReceiver{{Receiver: "0xr1", BPS: 333}},
			},
			seller:      "933",
			marketplace: "33",
			referrer:    "0",
			delivery:    "0",
			receivers:   []string{"33"},
		},
		{
			name:        "zero gross",
			gross:       "0",
			fees:        entity.ListingFees{MarketplaceBPS: 250},
			seller:      "0",
			marketplace: "0",
			referrer:    "0",
			delivery:    "0",
		},
		{
			name:  "full fee take",
			gross: "1000000",
			fees: entity.ListingFees{
				MarketplaceBPS: 10000,
			},
			seller:      "0",
			marketplace: "1000000",
			referrer:    "0",
			delivery:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gross, _ := new(big.Int).SetString(tt.gross, 10)

			settlement, err := ComputeSettlement(gross, tt.fees, tt.hasReferrer)
			if err != nil {
				t.Fatalf("ComputeSettlement() error = %v", err)
			}

			if settlement.Seller.String() != tt.seller {
				t.Errorf("seller = %s, want %s", settlement.Seller, tt.seller)
			}
			if settlement.Marketplace.String() != tt.marketplace {
				t.Errorf("marketplace = %s, want %s", settlement.Marketplace, tt.marketplace)
			}
			if settlement.Referrer.String() != tt.referrer {
				t.Errorf("referrer = %s, want %s", settlement.Referrer, tt.referrer)
			}
			if settlement.Delivery.String() != tt.delivery {
				t.Errorf("delivery = %s, want %s", settlement.Delivery, tt.delivery)
			}
			for idx, want := range tt.receivers {
				if settlement.Receivers[idx].String() != want {
					t.Errorf("receiver[%d] = %s, want %s", idx, settlement.Receivers[idx], want)
				}
			}

			if settlement.Total().Cmp(gross) != 0 {
				t.Errorf("settlement total = %s, want gross %s", settlement.Total(), gross)
			}
		})
	}
}

func TestComputeSettlementConservation(t *testing.T) {
	grosses := []string{"0", "1", "7", "99", "12345", "1000000", "999999999999999999999"}
	feeConfigs := []entity.ListingFees{
		{},
		{MarketplaceBPS: 250, ReferrerBPS: 100},
		{MarketplaceBPS: 9999, ReferrerBPS: 1},
		{MarketplaceBPS: 250, DeliverBPS: 50, DeliverFixed: "777"},
		{MarketplaceBPS: 100, Receivers: []entity.FeeReceiver{
			{Receiver: "0xr1", BPS: 33},
			{Receiver: "0xr2", BPS: 67},
		}},
	}

	for _, g := range grosses {
		for _, fees := range feeConfigs {
			gross, _ := new(big.Int).SetString(g, 10)

			settlement, err := ComputeSettlement(gross, fees, true)
			if err != nil {
				t.Fatalf("ComputeSettlement(%s) error = %v", g, err)
			}

			if settlement.Total().Cmp(gross) != 0 {
				t.Errorf("gross %s fees %+v: total = %s", g, fees, settlement.Total())
			}
		}
	}
}

func TestComputeSettlementNegativeGross(t *testing.T) {
	_, err := ComputeSettlement(big.NewInt(-1), entity.ListingFees{}, false)
	if !errors.Is(err, ErrNegativeGross) {
		t.Errorf("error = %v, want ErrNegativeGross", err)
	}
}

func TestComputeSettlementFeesExceedBPS(t *testing.T) {
	fees := entity.ListingFees{MarketplaceBPS: 9000, ReferrerBPS: 2000}

	_, err := ComputeSettlement(big.NewInt(1000), fees, true)
	if !errors.Is(err, ErrFeesExceedBPS) {
		t.Errorf("error = %v, want ErrFeesExceedBPS", err)
	}
}
