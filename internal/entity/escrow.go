package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Escrow is a recorded, not yet withdrawn credit owed to a receiver as the
// result of one settlement event. The escrows of one sourceEventId always sum
// to the gross sale amount.
type Escrow struct {
	ListingId       uint64 `json:"listingId"`
	MarketplaceAddr string `json:"marketplaceAddr"`
	ChainId         uint64 `json:"chainId"`

	Receiver      string `json:"receiver"`
	Erc20         string `json:"erc20"`
	Amount        string `json:"amount"`
	SourceEventId string `json:"sourceEventId"`
	Role          string `json:"role"`
}

func (e Escrow) Slug() string {
	return slug.Make(fmt.Sprintf("escrow-%d-%s-%s-%s-%s", e.ChainId, e.MarketplaceAddr, e.SourceEventId, e.Role, e.Receiver))
}
