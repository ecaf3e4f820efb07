package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type EventName string

// Raw contract events. CreateListing arrives in three parts that the
// normalizer recomposes into a single ListingCreated before the projection
// engine sees it.
const (
	MpCreateListingEvent             EventName = "CreateListing"
	MpCreateListingTokenDetailsEvent EventName = "CreateListingTokenDetails"
	MpCreateListingFeesEvent         EventName = "CreateListingFees"
	MpBidEvent                       EventName = "BidMade"
	MpOfferEvent                     EventName = "OfferMade"
	MpOfferAcceptedEvent             EventName = "OfferAccepted"
	MpOfferRescindedEvent            EventName = "OfferRescinded"
	MpPurchaseEvent                  EventName = "PurchaseMade"
	MpCancelListingEvent             EventName = "CancelListing"
	MpFinalizeListingEvent           EventName = "FinalizeListing"
)

// Normalized (post-merge) event names.
const (
	ListingCreated EventName = "ListingCreated"
)

// MarketplaceEvent is the normalized, totally ordered event handed to the
// projection engine. Exactly one payload pointer is set, matching Name.
type MarketplaceEvent struct {
	Id              string    `json:"id"`
	Name            EventName `json:"name"`
	MarketplaceAddr string    `json:"marketplaceAddr"`
	ChainId         uint64    `json:"chainId"`
	ListingId       uint64    `json:"listingId"`
	BlockNum        uint64    `json:"blockNum"`
	LogIndex        uint64    `json:"logIndex"`
	TxHash          string    `json:"txHash"`
	Timestamp       uint64    `json:"timestamp"`

	Created  *ListingCreatedPayload `json:"created,omitempty"`
	Bid      *BidPayload            `json:"bid,omitempty"`
	Offer    *OfferPayload          `json:"offer,omitempty"`
	Purchase *PurchasePayload       `json:"purchase,omitempty"`
	Cancel   *CancelPayload         `json:"cancel,omitempty"`
	Finalize *FinalizePayload       `json:"finalize,omitempty"`
}

type ListingCreatedPayload struct {
	ListingType       ListingType `json:"listingType"`
	TokenSpec         TokenSpec   `json:"tokenSpec"`
	Lazy              bool        `json:"lazy"`
	TokenAddr         string      `json:"tokenAddr,omitempty"`
	TokenId           string      `json:"tokenId,omitempty"`
	Seller            string      `json:"seller"`
	InitialAmount     string      `json:"initialAmount"`
	TotalAvailable    uint64      `json:"totalAvailable"`
	TotalPerSale      uint64      `json:"totalPerSale"`
	ExtensionInterval uint64      `json:"extensionInterval"`
	MinIncrementBPS   uint        `json:"minIncrementBps"`
	Erc20             string      `json:"erc20"`
	IdentityVerifier  string      `json:"identityVerifier,omitempty"`
	StartTime         uint64      `json:"startTime"`
	EndTime           uint64      `json:"endTime"`
	PriceCurve        string      `json:"priceCurve,omitempty"`
	PriceRateBPS      uint64      `json:"priceRateBps,omitempty"`
	Fees              ListingFees `json:"fees"`
}

type BidPayload struct {
	Bidder   string `json:"bidder"`
	Amount   string `json:"amount"`
	Referrer string `json:"referrer,omitempty"`
}

type OfferPayload struct {
	Offerer string `json:"offerer"`
	Amount  string `json:"amount,omitempty"`
}

type PurchasePayload struct {
	Buyer    string `json:"buyer"`
	Count    uint64 `json:"count"`
	Amount   string `json:"amount"`
	Referrer string `json:"referrer,omitempty"`
}

type CancelPayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

type FinalizePayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

func (e MarketplaceEvent) Slug() string {
	return slug.Make(fmt.Sprintf("event-%d-%s", e.ChainId, e.Id))
}
