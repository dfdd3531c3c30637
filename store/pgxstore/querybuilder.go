package pgxstore

import (
	"fmt"
	"strings"

	"github.com/h15s/gmtea/store/dbrow"
	"github.com/h15s/gmtea/web/gm"
)

var baseSnapshotsQuery = "SELECT " + strings.Join(dbrow.Columns, ", ") + " FROM stats_snapshots"

// SnapshotsQueryBuilder provides a domain-specific language for building snapshot queries
type SnapshotsQueryBuilder struct {
	sql        string
	args       []any
	conditions int
}

// NewSnapshotsQuery creates a new snapshot query builder
func NewSnapshotsQuery() *SnapshotsQueryBuilder {
	return &SnapshotsQueryBuilder{
		sql: baseSnapshotsQuery,
	}
}

// ForCriteria applies the snapshot criteria to the query in one fluent call
func (q *SnapshotsQueryBuilder) ForCriteria(criteria gm.SnapshotsCriteria) *SnapshotsQueryBuilder {
	return q.
		filterByDate(criteria.Date).
		orderByTakenAtDesc().
		paginateWithDetection(criteria)
}

// Latest selects the single most recent snapshot
func (q *SnapshotsQueryBuilder) Latest() *SnapshotsQueryBuilder {
	q.orderByTakenAtDesc()
	q.sql += " LIMIT 1"
	return q
}

// filterByDate keeps snapshots taken within the calendar day
func (q *SnapshotsQueryBuilder) filterByDate(date gm.Date) *SnapshotsQueryBuilder {
	if !date.IsZero() {
		q.addWhereCondition("taken_at >= $%d", date.Start())
		q.addWhereCondition("taken_at < $%d", date.End())
	}
	return q
}

// orderByTakenAtDesc adds ordering (most recent first)
func (q *SnapshotsQueryBuilder) orderByTakenAtDesc() *SnapshotsQueryBuilder {
	q.sql += " ORDER BY taken_at DESC"
	return q
}

// paginateWithDetection adds pagination with "has more" detection using LIMIT n+1
func (q *SnapshotsQueryBuilder) paginateWithDetection(criteria gm.SnapshotsCriteria) *SnapshotsQueryBuilder {
	limit := criteria.ItemsPerPage() + 1
	offset := criteria.ItemsToSkip()

	q.addParameter("LIMIT $%d", limit)

	if offset > 0 {
		q.addParameter("OFFSET $%d", offset)
	}

	return q
}

// Build returns the final SQL query and arguments
func (q *SnapshotsQueryBuilder) Build() (string, []any) {
	return q.sql, q.args
}

// addWhereCondition adds a WHERE condition, handling AND logic automatically
func (q *SnapshotsQueryBuilder) addWhereCondition(sqlClause string, value any) {
	keyword := " WHERE "
	if q.conditions > 0 {
		keyword = " AND "
	}
	q.sql += keyword + fmt.Sprintf(sqlClause, q.nextPlaceholder())
	q.args = append(q.args, value)
	q.conditions++
}

// addParameter adds a SQL clause with a parameter
func (q *SnapshotsQueryBuilder) addParameter(sqlClause string, value any) {
	q.sql += " " + fmt.Sprintf(sqlClause, q.nextPlaceholder())
	q.args = append(q.args, value)
}

// nextPlaceholder returns the next PostgreSQL placeholder ($1, $2, etc.)
func (q *SnapshotsQueryBuilder) nextPlaceholder() int {
	return len(q.args) + 1
}
