package entity

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var (
	ErrArgNotFound = errors.New("arg not found")
)

// RawLog is a single decoded contract log as delivered by the chain source.
type RawLog struct {
	ContractAddr string `json:"contractAddr"`
	ChainId      uint64 `json:"chainId"`
	EventName    string `json:"eventName"`
	BlockNum     uint64 `json:"blockNum"`
	LogIndex     uint64 `json:"logIndex"`
	TxHash       string `json:"txHash"`
	Timestamp    uint64 `json:"timestamp"`
	Removed      bool   `json:"removed"`
	Args         Args   `json:"args"`
}

type Args map[string]string

func (l RawLog) EventId() string {
	return fmt.Sprintf("%s-%d", l.TxHash, l.LogIndex)
}

func (a Args) GetString(name string) (string, error) {
	value, exists := a[name]
	if !exists {
		return "", fmt.Errorf("%s: %w", name, ErrArgNotFound)
	}
	return value, nil
}

func (a Args) GetAddress(name string) (string, error) {
	value, err := a.GetString(name)
	if err != nil {
		return "", err
	}
	return strings.ToLower(value), nil
}

func (a Args) GetUint64(name string) (uint64, error) {
	value, err := a.GetString(name)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(value, 10, 64)
}

func (a Args) GetUint(name string) (uint, error) {
	value, err := a.GetUint64(name)
	return uint(value), err
}

func (a Args) GetBool(name string) (bool, error) {
	value, err := a.GetString(name)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

func (a Args) GetAmount(name string) (string, error) {
	value, err := a.GetString(name)
	if err != nil {
		return "", err
	}
	if _, ok := new(big.Int).SetString(value, 10); !ok {
		return "", fmt.Errorf("%s is not a valid amount: %s", name, value)
	}
	return value, nil
}
