package tracking

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// OutcomeCount is the number of records with one kind and outcome.
type OutcomeCount struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// Summary aggregates playback records matching a filter.
type Summary struct {
	Total      int            `json:"total"`
	Instances  int            `json:"instances"`
	FirstSeen  time.Time      `json:"first_seen,omitempty"`
	LastSeen   time.Time      `json:"last_seen,omitempty"`
	ByOutcome  []OutcomeCount `json:"by_outcome"`
	LastFailed string         `json:"last_failed,omitempty"`
}

// Count returns the count recorded for kind and outcome.
func (s *Summary) Count(kind, outcome string) int {
	for _, c := range s.ByOutcome {
		if c.Kind == kind && c.Outcome == outcome {
			return c.Count
		}
	}
	return 0
}

// Summarize queries the database for counts per kind and outcome.
func Summarize(db *sql.DB, filter QueryFilter) (*Summary, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	whereClause, args := filter.BuildWhereClause()
	where := ""
	if whereClause != "" {
		where = " WHERE " + whereClause
	}

	summary := &Summary{}
	var first, last sql.NullInt64
	err := db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT instance_id), MIN(timestamp), MAX(timestamp)
		FROM playback_events`+where, args...).Scan(&summary.Total, &summary.Instances, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to query playback summary: %w", err)
	}
	if first.Valid {
		summary.FirstSeen = time.Unix(first.Int64, 0)
	}
	if last.Valid {
		summary.LastSeen = time.Unix(last.Int64, 0)
	}

	rows, err := db.Query(`
		SELECT kind, outcome, COUNT(*) AS n
		FROM playback_events`+where+`
		GROUP BY kind, outcome
		ORDER BY kind, n DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playback outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Kind, &c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		summary.ByOutcome = append(summary.ByOutcome, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome rows: %w", err)
	}

	failedWhere := " WHERE kind = 'unlock' AND outcome = 'failed'"
	if whereClause != "" {
		failedWhere += " AND " + whereClause
	}
	var detail sql.NullString
	err = db.QueryRow(`
		SELECT detail FROM playback_events`+failedWhere+`
		ORDER BY timestamp DESC, id DESC LIMIT 1`, args...).Scan(&detail)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query last unlock failure: %w", err)
	}
	summary.LastFailed = detail.String

	return summary, nil
}
