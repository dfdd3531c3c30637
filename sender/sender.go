// Package sender signs and submits gm() transactions and waits for their receipts.
package sender

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/h15s/gmtea/pkg/clock"
	"github.com/h15s/gmtea/pkg/evmrpc"
	"github.com/h15s/gmtea/pkg/gmabi"
	"github.com/h15s/gmtea/pkg/network"
)

// Sentinel errors for failure cases
var (
	ErrNoWallet       = errors.New("no signing key configured")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrWrongChain     = errors.New("endpoint serves a different chain")
	ErrChainID        = errors.New("chain id lookup failed")
	ErrNonce          = errors.New("nonce lookup failed")
	ErrGasPrice       = errors.New("gas price lookup failed")
	ErrEstimateGas    = errors.New("gas estimation failed")
	ErrSignFailed     = errors.New("signing failed")
	ErrSendFailed     = errors.New("send failed")
	ErrReverted       = errors.New("transaction reverted")
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
)

// Default configuration values
const (
	DefaultReceiptPollInterval = time.Second
	DefaultConfirmTimeout      = 60 * time.Second
)

// Backend is the slice of *ethclient.Client used to send and confirm
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Redactor is implemented by backends whose errors may quote secrets such as
// an RPC URL with an API key in its path.
type Redactor interface {
	Redact(err error) error
}

func redact(b Backend, err error) error {
	if r, ok := b.(Redactor); ok {
		return r.Redact(err)
	}
	return err
}

// Connector hands out a live Backend for one send
type Connector interface {
	Connect(ctx context.Context) (Backend, error)
}

// PoolConnector sends through the first endpoint that answers the liveness probe
type PoolConnector struct {
	Pool *evmrpc.Pool
}

func (c PoolConnector) Connect(ctx context.Context) (Backend, error) {
	conn, err := c.Pool.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Clock abstracts time for production and testing
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// Option configures the Sender
type Option func(*Sender)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Sender) { s.clock = c }
}

// WithReceiptPollInterval sets how often the receipt is looked up
func WithReceiptPollInterval(d time.Duration) Option {
	return func(s *Sender) { s.receiptPoll = d }
}

// WithConfirmTimeout bounds the wait for a receipt
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Sender) { s.confirmTimeout = d }
}

// WithGasLimit skips estimation and uses a fixed gas limit
func WithGasLimit(limit uint64) Option {
	return func(s *Sender) { s.gasLimit = limit }
}

// Sender calls gm() on the network's contract
type Sender struct {
	chains         Connector
	key            *ecdsa.PrivateKey
	from           common.Address
	net            network.Network
	clock          Clock
	receiptPoll    time.Duration
	confirmTimeout time.Duration
	gasLimit       uint64
}

// New constructs a Sender. A nil key yields a Sender whose every send
// ends in StageNoWallet.
func New(chains Connector, key *ecdsa.PrivateKey, net network.Network, opts ...Option) *Sender {
	s := &Sender{
		chains:         chains,
		key:            key,
		net:            net,
		clock:          clock.SystemClock{},
		receiptPoll:    DefaultReceiptPollInterval,
		confirmTimeout: DefaultConfirmTimeout,
	}
	if key != nil {
		s.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseKey decodes a hex private key with or without the 0x prefix.
// An empty string returns a nil key.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return key, nil
}

// HasWallet reports whether a signing key is configured
func (s *Sender) HasWallet() bool {
	return s.key != nil
}

// Address is the account gm() is sent from, zero without a wallet
func (s *Sender) Address() common.Address {
	return s.from
}

// Send runs one gm() call to completion. report, when not nil, receives
// StageSent as soon as the transaction is accepted and then the final status,
// which is also returned.
func (s *Sender) Send(ctx context.Context, report func(Status)) Status {
	if report == nil {
		report = func(Status) {}
	}
	final := func(st Status) Status {
		report(st)
		return st
	}

	if s.key == nil {
		return final(noWallet())
	}

	backend, err := s.chains.Connect(ctx)
	if err != nil {
		return final(failed(err))
	}
	defer backend.Close()

	tx, err := s.Submit(ctx, backend)
	if err != nil {
		return final(failed(redact(backend, err)))
	}
	report(sent(tx.Hash()))

	if _, err := s.Wait(ctx, backend, tx.Hash()); err != nil {
		return final(receiptFailed(s.net, tx.Hash()))
	}
	return final(confirmed(s.net, tx.Hash()))
}

// Submit builds, signs and broadcasts a gm() transaction
func (s *Sender) Submit(ctx context.Context, b Backend) (*types.Transaction, error) {
	if s.key == nil {
		return nil, ErrNoWallet
	}

	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainID, err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != s.net.ChainID {
		return nil, fmt.Errorf("%w: want %d, got %s", ErrWrongChain, s.net.ChainID, chainID)
	}

	nonce, err := b.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNonce, err)
	}

	gasPrice, err := b.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGasPrice, err)
	}

	contract := s.net.Contract
	data := gmabi.PackGM()

	gas := s.gasLimit
	if gas == 0 {
		gas, err = b.EstimateGas(ctx, ethereum.CallMsg{
			From:     s.from,
			To:       &contract,
			GasPrice: gasPrice,
			Data:     data,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEstimateGas, err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &contract,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignFailed, err)
	}

	if err := b.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return signed, nil
}

// Wait polls for the receipt of hash until it appears, the confirm timeout
// passes or ctx is done. A receipt with a failed status returns ErrReverted.
func (s *Sender) Wait(ctx context.Context, b Backend, hash common.Hash) (*types.Receipt, error) {
	timeout := s.clock.After(s.confirmTimeout)

	var lastErr error
	for {
		receipt, err := b.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt.Status == types.ReceiptStatusSuccessful:
			return receipt, nil
		case err == nil:
			return receipt, fmt.Errorf("%w: %s in block %s", ErrReverted, hash.Hex(), receipt.BlockNumber)
		case !errors.Is(err, ethereum.NotFound):
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrReceiptTimeout, hash.Hex(), lastErr)
			}
			return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, hash.Hex())
		case <-s.clock.After(s.receiptPoll):
		}
	}
}
