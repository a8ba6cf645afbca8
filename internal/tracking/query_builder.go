package tracking

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// QueryFilter selects playback records for stats queries.
type QueryFilter struct {
	Since      time.Time // inclusive lower bound; zero means no bound
	Until      time.Time // inclusive upper bound; zero means now
	Kind       string
	InstanceID string
	EventName  string
}

// BuildWhereClause constructs SQL WHERE clause and arguments from QueryFilter
func (q *QueryFilter) BuildWhereClause() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if !q.Since.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, q.Since.Unix())
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, q.Until.Unix())
	}
	if q.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, q.Kind)
	}
	if q.InstanceID != "" {
		clauses = append(clauses, "instance_id = ?")
		args = append(args, q.InstanceID)
	}
	if q.EventName != "" {
		clauses = append(clauses, "event_name = ?")
		args = append(args, q.EventName)
	}

	whereClause := strings.Join(clauses, " AND ")
	slog.Debug("built where clause", "clause", whereClause, "arg_count", len(args))
	return whereClause, args
}

// ParseDatePreset converts date preset strings to the start of the range
func ParseDatePreset(preset string, now time.Time) (time.Time, error) {
	switch preset {
	case "today":
		return beginningOfDay(now), nil
	case "yesterday":
		return beginningOfDay(now.AddDate(0, 0, -1)), nil
	case "week", "this-week":
		return beginningOfWeek(now), nil
	case "month", "this-month":
		return beginningOfMonth(now), nil
	case "all", "all-time":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown preset: %s", preset)
	}
}

// ParseSince turns a --since value into a lower bound. Presets are tried
// first, then natural language such as "3 days ago". Empty means no bound.
func ParseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return time.Time{}, nil
	}
	if start, err := ParseDatePreset(value, now); err == nil {
		return start, nil
	}

	result, err := naturaldate.Parse(value, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		slog.Warn("failed to parse natural language date", "input", value, "error", err)
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s': %w", value, err)
	}
	if result.Equal(now) {
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s': no date found", value)
	}

	slog.Debug("parsed natural language date", "input", value, "result", result)
	return result, nil
}

// beginningOfDay returns time at start of day (00:00:00)
func beginningOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// beginningOfWeek returns time at start of week (Monday 00:00:00)
func beginningOfWeek(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	monday := t.AddDate(0, 0, -int(weekday-1))
	return beginningOfDay(monday)
}

// beginningOfMonth returns time at start of month (1st day 00:00:00)
func beginningOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
