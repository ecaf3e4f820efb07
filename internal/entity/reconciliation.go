package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

type Reconciliation struct {
	ListingId       uint64      `json:"listingId"`
	MarketplaceAddr string      `json:"marketplaceAddr"`
	ChainId         uint64      `json:"chainId"`
	Fields          []FieldDiff `json:"fields"`
	Match           bool        `json:"match"`
	CheckedAt       time.Time   `json:"checkedAt"`
}

type FieldDiff struct {
	Name      string `json:"name"`
	Projected string `json:"projected"`
	OnChain   string `json:"onChain"`
	Match     bool   `json:"match"`
}

func (r Reconciliation) Slug() string {
	return slug.Make(fmt.Sprintf("reconciliation-%d-%s-%d", r.ChainId, r.MarketplaceAddr, r.ListingId))
}
