package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "PENDING"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferRescinded OfferStatus = "RESCINDED"
)

type Offer struct {
	ListingId       uint64 `json:"listingId"`
	MarketplaceAddr string `json:"marketplaceAddr"`
	ChainId         uint64 `json:"chainId"`

	Offerer   string      `json:"offerer"`
	Amount    string      `json:"amount"`
	Timestamp uint64      `json:"timestamp"`
	Status    OfferStatus `json:"status"`

	BlockNum uint64 `json:"blockNum"`
	LogIndex uint64 `json:"logIndex"`
	TxID     string `json:"txId"`
}

func (o Offer) Slug() string {
	return CreateOfferSlug(o.ChainId, o.MarketplaceAddr, o.ListingId, o.Offerer)
}

// One live offer per offerer per listing. A re-offer from the same address
// replaces the previous one, which is how the contract behaves.
func CreateOfferSlug(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) string {
	return slug.Make(fmt.Sprintf("offer-%d-%s-%d-%s", chainId, marketplaceAddr, listingId, offerer))
}
