// Package stats turns GMed logs into the counters shown on the page.
package stats

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GMed is one gm() call as recorded by the contract.
type GMed struct {
	User        common.Address
	Timestamp   time.Time
	BlockNumber uint64
	TxHash      common.Hash
}

// UserKey is the identity used for uniqueness: the lower-case hex address.
func (g GMed) UserKey() string {
	return strings.ToLower(g.User.Hex())
}

// Counts are the three numbers the page displays.
type Counts struct {
	TotalTx     int `json:"totalTx"`
	UniqueUsers int `json:"uniqueUsers"`
	DailyUsers  int `json:"dailyUsers"`
}
