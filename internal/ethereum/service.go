package ethereum

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrEmptyResult = errors.New("empty rpc result")
)

// getListing(uint256) view returning
// (totalAvailable, totalSold, totalPerSale, finalized)
const getListingSelector = "0x2c280988"

// ListingState is the contract's authoritative view of one listing, read
// directly over RPC for reconciliation.
type ListingState struct {
	TotalAvailable uint64
	TotalSold      uint64
	TotalPerSale   uint64
	Finalized      bool
}

type Service interface {
	GetLatestBlockNum() (uint64, error)
	GetListingState(marketplaceAddr string, listingId uint64) (*ListingState, error)
}

type service struct {
	client *rpcClient
}

func NewEthereumService(client *rpcClient) Service {
	return service{client}
}

func (s service) GetLatestBlockNum() (uint64, error) {
	resp, err := s.client.call("eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, resp.Error
	}

	return parseHexUint64(unquote(resp.Result))
}

func (s service) GetListingState(marketplaceAddr string, listingId uint64) (*ListingState, error) {
	data := fmt.Sprintf("%s%064x", getListingSelector, listingId)

	resp, err := s.client.call("eth_call", []interface{}{
		map[string]string{"to": marketplaceAddr, "data": data},
		"latest",
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	return decodeListingState(unquote(resp.Result))
}

// decodeListingState unpacks the four 32 byte return words of getListing.
func decodeListingState(result string) (*ListingState, error) {
	words, err := splitWords(result, 4)
	if err != nil {
		return nil, err
	}

	totalAvailable, err := parseHexUint64(words[0])
	if err != nil {
		return nil, err
	}
	totalSold, err := parseHexUint64(words[1])
	if err != nil {
		return nil, err
	}
	totalPerSale, err := parseHexUint64(words[2])
	if err != nil {
		return nil, err
	}
	finalized, err := parseHexUint64(words[3])
	if err != nil {
		return nil, err
	}

	return &ListingState{
		TotalAvailable: totalAvailable,
		TotalSold:      totalSold,
		TotalPerSale:   totalPerSale,
		Finalized:      finalized != 0,
	}, nil
}

func splitWords(result string, count int) ([]string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(result), "0x")
	if len(hex) < count*64 {
		return nil, fmt.Errorf("expected %d return words, got %d chars: %w", count, len(hex), ErrEmptyResult)
	}

	words := make([]string, count)
	for i := 0; i < count; i++ {
		words[i] = hex[i*64 : (i+1)*64]
	}

	return words, nil
}

func parseHexUint64(value string) (uint64, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if hex == "" {
		return 0, ErrEmptyResult
	}

	parsed, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex value: %s", value)
	}

	return parsed.Uint64(), nil
}

func unquote(raw []byte) string {
	return strings.Trim(string(raw), `"`)
}
