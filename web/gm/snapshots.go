// Package gm is the read side of the tracker: which snapshots to list and how they are paged.
package gm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/h15s/gmtea/stats"
)

// Sentinel errors for snapshot criteria construction
var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidPerPage = errors.New("invalid per_page")
	ErrNoSnapshot     = errors.New("no snapshot yet")
)

// LatestFinder returns the most recent snapshot or ErrNoSnapshot
type LatestFinder interface {
	Latest(ctx context.Context) (stats.Snapshot, error)
}

// SnapshotsFinder defines the interface for querying snapshot history
type SnapshotsFinder interface {
	FindSnapshots(ctx context.Context, criteria SnapshotsCriteria) (*SnapshotsPage, error)
}

// SnapshotsCriteria specifies criteria for querying snapshots using domain Value Objects
type SnapshotsCriteria struct {
	Date Date    // Calendar day filter. Zero means no filtering
	Page Page    // 1-based page number
	Size PerPage // Items per page
}

// ItemsPerPage returns the number of items requested per page
func (c SnapshotsCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c SnapshotsCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// NewSnapshotsCriteria creates SnapshotsCriteria from raw query values with validation.
// The date is read in loc.
func NewSnapshotsCriteria(date string, page, perPage uint64, loc *time.Location) (SnapshotsCriteria, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return SnapshotsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	pp, err := ParsePerPageFromUint64(perPage)
	if err != nil {
		return SnapshotsCriteria{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}

	return SnapshotsCriteria{
		Date: d,
		Page: ParsePageFromUint64(page),
		Size: pp,
	}, nil
}

// SnapshotsPage represents a page of snapshots, newest first, with navigation metadata
type SnapshotsPage struct {
	Snapshots []stats.Snapshot
	HasMore   bool    // True if there are more pages after this one
	Number    Page    // Current page number
	Size      PerPage // Page size
}

// Helper methods for pagination state
func (p *SnapshotsPage) HasNext() bool     { return p.HasMore }
func (p *SnapshotsPage) HasPrevious() bool { return p.Number > 1 }
