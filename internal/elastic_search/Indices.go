package elastic_search

import (
	"fmt"

	"github.com/ZilDuck/marketplace-indexer/internal/config"
)

type Indices string

var (
	ListingIndex        Indices = "listing"
	BidIndex            Indices = "bid"
	OfferIndex          Indices = "offer"
	PurchaseIndex       Indices = "purchase"
	EscrowIndex         Indices = "escrow"
	CursorIndex         Indices = "cursor"
	ReconciliationIndex Indices = "reconciliation"
	ErrorIndex          Indices = "error"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
