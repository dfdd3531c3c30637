// Package evmrpctest provides an in-process JSON-RPC node that answers the
// handful of eth_ methods the tracker and the sender use.
package evmrpctest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Mining decides what happens to a transaction after eth_sendRawTransaction
type Mining int

const (
	MineSuccess Mining = iota // receipt with status 1
	MineRevert                // receipt with status 0
	MineNever                 // no receipt ever appears
)

// DefaultChainID matches Tea Sepolia so network.TeaSepolia can be used as is.
const DefaultChainID = 10218

// Node is a fake Ethereum JSON-RPC endpoint backed by httptest.Server
type Node struct {
	server *httptest.Server

	mu          sync.Mutex
	head        uint64
	chainID     *big.Int
	gasPrice    *big.Int
	gasEstimate uint64
	nonce       uint64
	maxLogRange uint64
	logs        []types.Log
	mining      Mining
	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	failing     map[string]string
	calls       map[string]int
	logQueries  [][2]uint64
}

// NewNode starts a node at the given head block and closes it on test cleanup
func NewNode(t testing.TB, head uint64) *Node {
	t.Helper()

	n := &Node{
		head:        head,
		chainID:     big.NewInt(DefaultChainID),
		gasPrice:    big.NewInt(1_000_000_000),
		gasEstimate: 45_000,
		receipts:    make(map[common.Hash]*types.Receipt),
		failing:     make(map[string]string),
		calls:       make(map[string]int),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(n.server.Close)
	return n
}

// URL is the endpoint to dial
func (n *Node) URL() string { return n.server.URL }

// Close stops the server; later dials fail like an unreachable endpoint
func (n *Node) Close() { n.server.Close() }

// SetHead moves the chain head
func (n *Node) SetHead(head uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.head = head
}

// AddLogs appends logs served by eth_getLogs
func (n *Node) AddLogs(logs ...types.Log) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, logs...)
}

// SetMaxLogRange rejects eth_getLogs spanning more than blocks (0 disables the limit)
func (n *Node) SetMaxLogRange(blocks uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.maxLogRange = blocks
}

// SetMining sets how sent transactions resolve
func (n *Node) SetMining(m Mining) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mining = m
}

// Fail makes method answer with a JSON-RPC error carrying message
func (n *Node) Fail(method, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failing[method] = message
}

// Recover clears a failure set with Fail
func (n *Node) Recover(method string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.failing, method)
}

// Calls returns how many times method was called
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// LogQueries returns the [from, to] ranges of every eth_getLogs call
func (n *Node) LogQueries() [][2]uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.logQueries)
}

// Sent returns the transactions received through eth_sendRawTransaction
func (n *Node) Sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sent)
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (n *Node) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage("null")}
	result, err := n.dispatch(req)
	if err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		raw, mErr := json.Marshal(result)
		if mErr != nil {
			resp.Error = &rpcError{Code: -32603, Message: mErr.Error()}
		} else {
			resp.Result = raw
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) dispatch(req request) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls[req.Method]++
	if msg, ok := n.failing[req.Method]; ok {
		return nil, errors.New(msg)
	}

	switch req.Method {
	case "eth_blockNumber":
		return hexutil.Uint64(n.head), nil
	case "eth_chainId":
		return (*hexutil.Big)(n.chainID), nil
	case "eth_gasPrice":
		return (*hexutil.Big)(n.gasPrice), nil
	case "eth_estimateGas":
		return hexutil.Uint64(n.gasEstimate), nil
	case "eth_getTransactionCount":
		return hexutil.Uint64(n.nonce), nil
	case "eth_getLogs":
		return n.getLogs(req.Params)
	case "eth_sendRawTransaction":
		return n.sendRawTransaction(req.Params)
	case "eth_getTransactionReceipt":
		return n.getReceipt(req.Params)
	default:
		return nil, fmt.Errorf("method %s not supported", req.Method)
	}
}

type filterArg struct {
	Address   json.RawMessage `json:"address"`
	FromBlock string          `json:"fromBlock"`
	ToBlock   string          `json:"toBlock"`
}

func (n *Node) getLogs(params []json.RawMessage) (any, error) {
	if len(params) != 1 {
		return nil, errors.New("eth_getLogs expects one filter")
	}
	var arg filterArg
	if err := json.Unmarshal(params[0], &arg); err != nil {
		return nil, err
	}

	from, err := n.blockArg(arg.FromBlock)
	if err != nil {
		return nil, err
	}
	to, err := n.blockArg(arg.ToBlock)
	if err != nil {
		return nil, err
	}
	if n.maxLogRange > 0 && to-from+1 > n.maxLogRange {
		return nil, fmt.Errorf("block range too large: %d > %d", to-from+1, n.maxLogRange)
	}
	n.logQueries = append(n.logQueries, [2]uint64{from, to})

	addresses, err := parseAddresses(arg.Address)
	if err != nil {
		return nil, err
	}

	out := []types.Log{}
	for _, l := range n.logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(addresses) > 0 && !slices.Contains(addresses, l.Address) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (n *Node) blockArg(s string) (uint64, error) {
	switch s {
	case "", "latest", "pending", "safe", "finalized":
		return n.head, nil
	case "earliest":
		return 0, nil
	}
	return hexutil.DecodeUint64(s)
}

func parseAddresses(raw json.RawMessage) ([]common.Address, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var many []common.Address
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one common.Address
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []common.Address{one}, nil
}

func (n *Node) sendRawTransaction(params []json.RawMessage) (any, error) {
	if len(params) != 1 {
		return nil, errors.New("eth_sendRawTransaction expects one argument")
	}
	var encoded hexutil.Bytes
	if err := json.Unmarshal(params[0], &encoded); err != nil {
		return nil, err
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(encoded); err != nil {
		return nil, err
	}

	n.sent = append(n.sent, tx)
	n.nonce++

	switch n.mining {
	case MineSuccess, MineRevert:
		status := types.ReceiptStatusSuccessful
		if n.mining == MineRevert {
			status = types.ReceiptStatusFailed
		}
		n.head++
		n.receipts[tx.Hash()] = &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			CumulativeGasUsed: n.gasEstimate,
			Logs:              []*types.Log{},
			TxHash:            tx.Hash(),
			GasUsed:           n.gasEstimate,
			BlockNumber:       new(big.Int).SetUint64(n.head),
		}
	case MineNever:
	}

	return tx.Hash(), nil
}

func (n *Node) getReceipt(params []json.RawMessage) (any, error) {
	if len(params) != 1 {
		return nil, errors.New("eth_getTransactionReceipt expects one argument")
	}
	var hash common.Hash
	if err := json.Unmarshal(params[0], &hash); err != nil {
		return nil, err
	}
	receipt, ok := n.receipts[hash]
	if !ok {
		return nil, nil
	}
	return receipt, nil
}
