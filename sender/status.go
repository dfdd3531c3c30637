package sender

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/h15s/gmtea/pkg/network"
)

// Stage is where a gm send ended up
type Stage string

const (
	StageNoWallet      Stage = "no_wallet"
	StageSent          Stage = "sent"
	StageConfirmed     Stage = "confirmed"
	StageReceiptFailed Stage = "receipt_failed"
	StageFailed        Stage = "failed"
)

// Final reports whether no further status follows this stage.
func (s Stage) Final() bool {
	return s != StageSent
}

// Status is the user-facing outcome of a send.
type Status struct {
	Stage       Stage  `json:"stage"`
	Message     string `json:"message"`
	TxHash      string `json:"txHash,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// String prefixes the message with the stage icon.
func (s Status) String() string {
	return s.Icon() + " " + s.Message
}

// Icon is a one-glyph summary of the stage.
func (s Status) Icon() string {
	switch s.Stage {
	case StageSent, StageConfirmed:
		return "✅"
	case StageNoWallet, StageReceiptFailed:
		return "⚠️"
	default:
		return "❌"
	}
}

func noWallet() Status {
	return Status{Stage: StageNoWallet, Message: "Wallet not found"}
}

func sent(hash common.Hash) Status {
	return Status{
		Stage:   StageSent,
		Message: fmt.Sprintf("TX Sent! Hash: %s", hash.Hex()),
		TxHash:  hash.Hex(),
	}
}

func confirmed(net network.Network, hash common.Hash) Status {
	link := net.TxURL(hash)
	return Status{
		Stage:       StageConfirmed,
		Message:     fmt.Sprintf("Confirmed! TX Hash: %s", link),
		TxHash:      hash.Hex(),
		ExplorerURL: link,
	}
}

func receiptFailed(net network.Network, hash common.Hash) Status {
	link := net.TxURL(hash)
	return Status{
		Stage:       StageReceiptFailed,
		Message:     fmt.Sprintf("TX sent but receipt failed. Check: %s", link),
		TxHash:      hash.Hex(),
		ExplorerURL: link,
	}
}

func failed(err error) Status {
	return Status{Stage: StageFailed, Message: fmt.Sprintf("Error: %s", err.Error())}
}
