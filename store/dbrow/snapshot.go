package dbrow

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/h15s/gmtea/stats"
)

// Snapshot represents a stats_snapshots record
type Snapshot struct {
	ID          uuid.UUID `db:"id"`
	TakenAt     time.Time `db:"taken_at"`
	TotalTx     int32     `db:"total_tx"`
	UniqueUsers int32     `db:"unique_users"`
	DailyUsers  int32     `db:"daily_users"`
	FromBlock   int64     `db:"from_block"`
	ToBlock     int64     `db:"to_block"`
	Endpoint    string    `db:"endpoint"`
	ChainID     int64     `db:"chain_id"`
	Contract    string    `db:"contract"`
}

// Columns lists the columns in the order Values uses
var Columns = []string{
	"id", "taken_at", "total_tx", "unique_users", "daily_users",
	"from_block", "to_block", "endpoint", "chain_id", "contract",
}

// FromSnapshot converts a domain snapshot to a row
//
//nolint:gosec // counters and block numbers stay far below the column limits
func FromSnapshot(s stats.Snapshot) Snapshot {
	return Snapshot{
		ID:          s.ID,
		TakenAt:     s.TakenAt,
		TotalTx:     int32(s.Counts.TotalTx),
		UniqueUsers: int32(s.Counts.UniqueUsers),
		DailyUsers:  int32(s.Counts.DailyUsers),
		FromBlock:   int64(s.FromBlock),
		ToBlock:     int64(s.ToBlock),
		Endpoint:    s.Endpoint,
		ChainID:     int64(s.ChainID),
		Contract:    s.Contract.Hex(),
	}
}

// Values returns the row as query arguments in Columns order
func (r Snapshot) Values() []any {
	return []any{
		r.ID, r.TakenAt, r.TotalTx, r.UniqueUsers, r.DailyUsers,
		r.FromBlock, r.ToBlock, r.Endpoint, r.ChainID, r.Contract,
	}
}

// ToSnapshot converts the row back to the domain model
//
//nolint:gosec // columns are checked non-negative
func (r Snapshot) ToSnapshot() stats.Snapshot {
	return stats.Snapshot{
		ID: r.ID,
		Counts: stats.Counts{
			TotalTx:     int(r.TotalTx),
			UniqueUsers: int(r.UniqueUsers),
			DailyUsers:  int(r.DailyUsers),
		},
		FromBlock: uint64(r.FromBlock),
		ToBlock:   uint64(r.ToBlock),
		Endpoint:  r.Endpoint,
		ChainID:   uint64(r.ChainID),
		Contract:  common.HexToAddress(r.Contract),
		TakenAt:   r.TakenAt,
	}
}
