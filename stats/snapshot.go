package stats

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Snapshot is the result of one poll.
type Snapshot struct {
	ID        uuid.UUID
	Counts    Counts
	FromBlock uint64
	ToBlock   uint64
	// Endpoint identifies the RPC endpoint that served the poll, without credentials.
	Endpoint string
	ChainID  uint64
	Contract common.Address
	TakenAt  time.Time
}

// NewSnapshot stamps counts with a fresh id.
func NewSnapshot(counts Counts, from, to uint64, takenAt time.Time) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Counts:    counts,
		FromBlock: from,
		ToBlock:   to,
		TakenAt:   takenAt,
	}
}
