package subgraph

import (
	"encoding/json"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/entity"
)

// Service is the decoded-log source the ingestion pipeline treats as
// authoritative. The direct RPC node only backs the reconciliation checker.
type Service interface {
	GetLatestBlockNum() (uint64, error)
	GetEvents(contractAddr string, chainId, fromBlock, toBlock uint64) ([]entity.RawLog, error)
}

type service struct {
	client *client
}

func NewSubgraphService(url string, timeout int) (Service, error) {
	c, err := newGraphqlClient(url, timeout)
	if err != nil {
		return nil, err
	}

	return service{c}, nil
}

const metaQuery = `{ _meta { block { number } } }`

// eventsPageSize is the subgraph's hard result cap. Windows holding more
// events than this are fetched page by page until a short page.
const eventsPageSize = 1000

const eventsQuery = `query Events($contract: String!, $from: Int!, $to: Int!, $first: Int!, $skip: Int!) {
  marketplaceEvents(
    where: {contract: $contract, blockNumber_gte: $from, blockNumber_lte: $to}
    orderBy: blockNumber
    orderDirection: asc
    first: $first
    skip: $skip
  ) {
    eventName
    blockNumber
    logIndex
    transactionHash
    timestamp
    removed
    args { name value }
  }
}`

type metaResult struct {
	Meta struct {
		Block struct {
			Number uint64 `json:"number"`
		} `json:"block"`
	} `json:"_meta"`
}

type eventsResult struct {
	MarketplaceEvents []rawEvent `json:"marketplaceEvents"`
}

type rawEvent struct {
	EventName       string     `json:"eventName"`
	BlockNumber     uint64     `json:"blockNumber,string"`
	LogIndex        uint64     `json:"logIndex,string"`
	TransactionHash string     `json:"transactionHash"`
	Timestamp       uint64     `json:"timestamp,string"`
	Removed         bool       `json:"removed"`
	Args            []eventArg `json:"args"`
}

type eventArg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s service) GetLatestBlockNum() (uint64, error) {
	data, err := s.client.query(metaQuery, nil)
	if err != nil {
		return 0, err
	}

	var result metaResult
	if err = json.Unmarshal(data, &result); err != nil {
		return 0, err
	}

	return result.Meta.Block.Number, nil
}

func (s service) GetEvents(contractAddr string, chainId, fromBlock, toBlock uint64) ([]entity.RawLog, error) {
	logs := make([]entity.RawLog, 0)

	for skip := 0; ; skip += eventsPageSize {
		page, err := s.getEventsPage(contractAddr, fromBlock, toBlock, skip)
		if err != nil {
			return nil, err
		}

		for _, e := range page {
			args := make(entity.Args, len(e.Args))
			for _, arg := range e.Args {
				args[arg.Name] = arg.Value
			}

			logs = append(logs, entity.RawLog{
				ContractAddr: strings.ToLower(contractAddr),
				ChainId:      chainId,
				EventName:    e.EventName,
				BlockNum:     e.BlockNumber,
				LogIndex:     e.LogIndex,
				TxHash:       e.TransactionHash,
				Timestamp:    e.Timestamp,
				Removed:      e.Removed,
				Args:         args,
			})
		}

		if len(page) < eventsPageSize {
			break
		}
	}

	return logs, nil
}

func (s service) getEventsPage(contractAddr string, fromBlock, toBlock uint64, skip int) ([]rawEvent, error) {
	data, err := s.client.query(eventsQuery, map[string]interface{}{
		"contract": strings.ToLower(contractAddr),
		"from":     fromBlock,
		"to":       toBlock,
		"first":    eventsPageSize,
		"skip":     skip,
	})
	if err != nil {
		return nil, err
	}

	var result eventsResult
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result.MarketplaceEvents, nil
}
