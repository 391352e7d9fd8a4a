package entity

import (
	"strings"
	"time"
)

// AllLevels is the sentinel level value meaning "no level filter".
const AllLevels = "All Levels"

// TimeRange is one of the fixed look-back windows.
type TimeRange string

const (
	TimeRangeLastHour    TimeRange = "Last Hour"
	TimeRangeLast24Hours TimeRange = "Last 24 Hours"
	TimeRangeLast7Days   TimeRange = "Last 7 Days"
	TimeRangeLast30Days  TimeRange = "Last 30 Days"
)

// TimeRanges lists the accepted windows in display order.
var TimeRanges = []TimeRange{TimeRangeLastHour, TimeRangeLast24Hours, TimeRangeLast7Days, TimeRangeLast30Days}

// Duration returns the look-back of the window.
func (t TimeRange) Duration() (time.Duration, bool) {
	switch t {
	case TimeRangeLastHour:
		return time.Hour, true
	case TimeRangeLast24Hours:
		return 24 * time.Hour, true
	case TimeRangeLast7Days:
		return 7 * 24 * time.Hour, true
	case TimeRangeLast30Days:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// LogFilter is a conjunctive store-level filter. Zero fields do not constrain.
type LogFilter struct {
	Levels      []Level
	Source      string
	Category    string
	Categories  []string
	Resolved    *bool
	Environment Environment
	Since       time.Time // createdAt >= Since
	Before      time.Time // createdAt < Before
	Search      string

	// StaleBefore makes Resolved account for age-based resolution:
	// unresolved info/debug records created before it count as resolved.
	StaleBefore time.Time
}

// IsEmpty reports whether the filter matches every record.
func (f LogFilter) IsEmpty() bool {
	return len(f.Levels) == 0 && f.Source == "" && f.Category == "" && len(f.Categories) == 0 &&
		f.Resolved == nil && f.Environment == "" && f.Since.IsZero() && f.Before.IsZero() && f.Search == ""
}

// Matches evaluates the filter against a record in memory.
func (f LogFilter) Matches(r *LogRecord) bool {
	if len(f.Levels) > 0 && !containsLevel(f.Levels, r.Level) {
		return false
	}
	if f.Source != "" && r.Source != f.Source {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if len(f.Categories) > 0 && !containsString(f.Categories, r.Category) {
		return false
	}
	if f.Environment != "" && r.Environment != f.Environment {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Before.IsZero() && !r.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Resolved != nil && f.effectiveResolved(r) != *f.Resolved {
		return false
	}
	if f.Search != "" && !matchesSearch(r, f.Search) {
		return false
	}
	return true
}

func (f LogFilter) effectiveResolved(r *LogRecord) bool {
	if r.Resolved {
		return true
	}
	if f.StaleBefore.IsZero() {
		return false
	}
	return containsLevel(AutoResolveLevels, r.Level) && r.CreatedAt.Before(f.StaleBefore)
}

func matchesSearch(r *LogRecord, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.Message), term) ||
		strings.Contains(strings.ToLower(r.Source), term) ||
		strings.Contains(strings.ToLower(r.Category), term) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func containsLevel(levels []Level, l Level) bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// LogQuery is the caller-facing filter and page request.
type LogQuery struct {
	Page        int    `json:"page,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Level       string `json:"level,omitempty"`
	Source      string `json:"source,omitempty"`
	Category    string `json:"category,omitempty"`
	TimeRange   string `json:"timeRange,omitempty"`
	Search      string `json:"search,omitempty"`
	Resolved    *bool  `json:"resolved,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// ToFilter resolves the query against now. Unknown time ranges are ignored.
func (q LogQuery) ToFilter(now time.Time) LogFilter {
	f := LogFilter{
		Source:      q.Source,
		Category:    q.Category,
		Resolved:    q.Resolved,
		Environment: Environment(q.Environment),
		Search:      strings.TrimSpace(q.Search),
		StaleBefore: now.Add(-AutoResolveAge),
	}
	if q.Level != "" && !strings.EqualFold(q.Level, AllLevels) {
		// Callers validate the level; an unknown value must still match nothing.
		f.Levels = []Level{Level(strings.ToLower(q.Level))}
	}
	if d, ok := TimeRange(q.TimeRange).Duration(); ok {
		f.Since = now.Add(-d)
	}
	return f
}
