package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type Bid struct {
	ListingId       uint64 `json:"listingId"`
	MarketplaceAddr string `json:"marketplaceAddr"`
	ChainId         uint64 `json:"chainId"`

	Bidder    string `json:"bidder"`
	Amount    string `json:"amount"`
	Referrer  string `json:"referrer,omitempty"`
	Timestamp uint64 `json:"timestamp"`

	Delivered bool `json:"delivered"`
	Settled   bool `json:"settled"`
	Refunded  bool `json:"refunded"`

	BlockNum uint64 `json:"blockNum"`
	LogIndex uint64 `json:"logIndex"`
	TxID     string `json:"txId"`
}

func (b Bid) Slug() string {
	return slug.Make(fmt.Sprintf("bid-%d-%s-%d-%s-%d", b.ChainId, b.MarketplaceAddr, b.ListingId, b.TxID, b.LogIndex))
}
