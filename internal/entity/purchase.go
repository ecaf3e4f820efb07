package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type Purchase struct {
	ListingId       uint64 `json:"listingId"`
	MarketplaceAddr string `json:"marketplaceAddr"`
	ChainId         uint64 `json:"chainId"`

	Buyer     string `json:"buyer"`
	Count     uint64 `json:"count"`
	Amount    string `json:"amount"`
	Referrer  string `json:"referrer,omitempty"`
	Timestamp uint64 `json:"timestamp"`

	BlockNum uint64 `json:"blockNum"`
	LogIndex uint64 `json:"logIndex"`
	TxID     string `json:"txId"`
}

func (p Purchase) Slug() string {
	return slug.Make(fmt.Sprintf("purchase-%d-%s-%d-%s-%d", p.ChainId, p.MarketplaceAddr, p.ListingId, p.TxID, p.LogIndex))
}
