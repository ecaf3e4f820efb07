package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Cursor is the only durable bootstrap state besides the aggregates: the last
// block fully processed for one marketplace contract on one chain.
type Cursor struct {
	ContractAddr       string `json:"contractAddr"`
	ChainId            uint64 `json:"chainId"`
	LastProcessedBlock uint64 `json:"lastProcessedBlock"`
}

func (c Cursor) Slug() string {
	return CreateCursorSlug(c.ChainId, c.ContractAddr)
}

func CreateCursorSlug(chainId uint64, contractAddr string) string {
	return slug.Make(fmt.Sprintf("cursor-%d-%s", chainId, contractAddr))
}
