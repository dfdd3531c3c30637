// Package gmabi binds the two members of the gm contract: the gm() call and the GMed event.
package gmabi

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// JSON is the contract interface:
//
//	function gm() external
//	event GMed(address indexed user, uint256 timestamp)
const JSON = `[
	{"type":"function","name":"gm","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"GMed","anonymous":false,"inputs":[
		{"name":"user","type":"address","indexed":true},
		{"name":"timestamp","type":"uint256","indexed":false}
	]}
]`

const (
	MethodGM  = "gm"
	EventGMed = "GMed"
)

var (
	ErrUnexpectedEvent = errors.New("log is not a GMed event")
	ErrDecodeFailed    = errors.New("failed to decode GMed event")
)

var parsed = mustParse(JSON)

func mustParse(def string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("gmabi: %v", err))
	}
	return a
}

// Event is a decoded GMed log.
type Event struct {
	User        common.Address
	Timestamp   uint64 // unix seconds as emitted by the contract
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// PackGM returns calldata for gm().
func PackGM() []byte {
	data, err := parsed.Pack(MethodGM)
	if err != nil {
		// gm() has no arguments, Pack can only fail on a broken ABI
		panic(fmt.Sprintf("gmabi: pack gm: %v", err))
	}
	return data
}

// EventID is topic0 of every GMed log.
func EventID() common.Hash {
	return parsed.Events[EventGMed].ID
}

// FilterQuery selects GMed logs emitted by contract within [from, to].
func FilterQuery(contract common.Address, from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{EventID()}},
	}
}

// Unpack decodes a GMed log.
func Unpack(log types.Log) (Event, error) {
	if len(log.Topics) < 2 || log.Topics[0] != EventID() {
		return Event{}, ErrUnexpectedEvent
	}

	values, err := parsed.Unpack(EventGMed, log.Data)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if len(values) != 1 {
		return Event{}, fmt.Errorf("%w: expected 1 value, got %d", ErrDecodeFailed, len(values))
	}
	ts, ok := values[0].(*big.Int)
	if !ok || !ts.IsUint64() {
		return Event{}, fmt.Errorf("%w: timestamp out of range", ErrDecodeFailed)
	}

	return Event{
		User:        common.BytesToAddress(log.Topics[1].Bytes()),
		Timestamp:   ts.Uint64(),
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}, nil
}

// NewLog builds a GMed log as the contract would emit it. Used by fakes and tests.
func NewLog(contract, user common.Address, timestamp, block uint64, txHash common.Hash) types.Log {
	data, err := parsed.Events[EventGMed].Inputs.NonIndexed().Pack(new(big.Int).SetUint64(timestamp))
	if err != nil {
		panic(fmt.Sprintf("gmabi: pack GMed data: %v", err))
	}
	return types.Log{
		Address:     contract,
		Topics:      []common.Hash{EventID(), common.BytesToHash(user.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash,
	}
}
