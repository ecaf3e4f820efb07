package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type ListingType string

const (
	IndividualAuction ListingType = "INDIVIDUAL_AUCTION"
	FixedPrice        ListingType = "FIXED_PRICE"
	DynamicPrice      ListingType = "DYNAMIC_PRICE"
	OffersOnly        ListingType = "OFFERS_ONLY"
)

type TokenSpec string

const (
	Erc721  TokenSpec = "ERC721"
	Erc1155 TokenSpec = "ERC1155"
)

type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingCancelled ListingStatus = "CANCELLED"
	ListingFinalized ListingStatus = "FINALIZED"
)

type Listing struct {
	ListingId       uint64 `json:"listingId"`
	MarketplaceAddr string `json:"marketplaceAddr"`
	ChainId         uint64 `json:"chainId"`

	ListingType ListingType `json:"listingType"`
	TokenSpec   TokenSpec   `json:"tokenSpec"`
	Lazy        bool        `json:"lazy"`

	TokenAddr string `json:"tokenAddr,omitempty"`
	TokenId   string `json:"tokenId,omitempty"`

	Seller            string `json:"seller"`
	InitialAmount     string `json:"initialAmount"`
	TotalAvailable    uint64 `json:"totalAvailable"`
	TotalPerSale      uint64 `json:"totalPerSale"`
	ExtensionInterval uint64 `json:"extensionInterval"`
	MinIncrementBPS   uint   `json:"minIncrementBps"`
	Erc20             string `json:"erc20"`
	IdentityVerifier  string `json:"identityVerifier,omitempty"`

	Fees ListingFees `json:"fees"`

	StartTime uint64 `json:"startTime"`
	EndTime   uint64 `json:"endTime"`

	PriceCurve   string `json:"priceCurve,omitempty"`
	PriceRateBPS uint64 `json:"priceRateBps,omitempty"`

	Status         ListingStatus `json:"status"`
	TotalSold      uint64        `json:"totalSold"`
	HasBid         bool          `json:"hasBid"`
	Finalized      bool          `json:"finalized"`
	OffersAccepted bool          `json:"offersAccepted"`
	HighestBid     *Bid          `json:"highestBid,omitempty"`

	BlockNum uint64 `json:"blockNum"`
	TxID     string `json:"txId"`

	LastEventId       string `json:"lastEventId"`
	LastEventBlock    uint64 `json:"lastEventBlock"`
	LastEventLogIndex uint64 `json:"lastEventLogIndex"`
}

type ListingFees struct {
	MarketplaceBPS uint          `json:"marketplaceBps"`
	ReferrerBPS    uint          `json:"referrerBps"`
	DeliverBPS     uint          `json:"deliverBps"`
	DeliverFixed   string        `json:"deliverFixed"`
	Receivers      []FeeReceiver `json:"receivers"`
}

type FeeReceiver struct {
	Receiver string `json:"receiver"`
	BPS      uint   `json:"bps"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.ChainId, l.MarketplaceAddr, l.ListingId)
}

func CreateListingSlug(chainId uint64, marketplaceAddr string, listingId uint64) string {
	return slug.Make(fmt.Sprintf("listing-%d-%s-%d", chainId, marketplaceAddr, listingId))
}

// TotalFeeBPS is the sum of all BPS fees carried by the listing. Anything
// above 10000 cannot settle and the listing is refused at creation.
func (f ListingFees) TotalFeeBPS() uint {
	total := f.MarketplaceBPS + f.ReferrerBPS + f.DeliverBPS
	for _, r := range f.Receivers {
		total += r.BPS
	}
	return total
}

func (l Listing) IsTerminal() bool {
	return l.Status == ListingCancelled || l.Status == ListingFinalized
}

func (l Listing) IsSoldOut() bool {
	return l.TotalAvailable != 0 && l.TotalSold >= l.TotalAvailable
}
