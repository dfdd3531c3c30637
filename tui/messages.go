package tui

import (
	"github.com/h15s/gmtea/sender"
	"github.com/h15s/gmtea/stats"
)

// StatsMsg delivers a completed sync to the program
type StatsMsg struct {
	Snapshot stats.Snapshot
}

// SyncErrorMsg delivers a failed sync to the program
type SyncErrorMsg struct {
	Err error
}

// statusMsg carries one send update and where the next one comes from
type statusMsg struct {
	status sender.Status
	next   <-chan sender.Status
}

type refreshRequestedMsg struct{}
