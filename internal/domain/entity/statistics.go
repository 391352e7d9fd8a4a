package entity

import "time"

// LevelCount is a record count for one level.
type LevelCount struct {
	Level Level `json:"level"`
	Count int64 `json:"count"`
}

// SourceCount is a record count for one source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// SourceLevelCount is a record count for one (source, level) pair.
type SourceLevelCount struct {
	Source   string    `json:"source"`
	Level    Level     `json:"level"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

// TodayCounts holds per-level counts since local midnight.
type TodayCounts struct {
	Errors   int64 `json:"errors"`
	Warnings int64 `json:"warnings"`
	Info     int64 `json:"info"`
	Debug    int64 `json:"debug"`
}

// Set assigns the count for a level.
func (t *TodayCounts) Set(level Level, n int64) {
	switch level {
	case LevelError:
		t.Errors = n
	case LevelWarning:
		t.Warnings = n
	case LevelInfo:
		t.Info = n
	case LevelDebug:
		t.Debug = n
	}
}

// LogStatistics is the statistics half of the dashboard overview.
type LogStatistics struct {
	TotalLogs         int64         `json:"totalLogs"`
	Today             TodayCounts   `json:"today"`
	LevelDistribution []LevelCount  `json:"levelDistribution"`
	TopSources        []SourceCount `json:"topSources"`
	RecentErrors      []*LogRecord  `json:"recentErrors"`
}

// EmptyStatistics is the zero value used when statistics cannot be computed.
func EmptyStatistics() *LogStatistics {
	return &LogStatistics{
		LevelDistribution: []LevelCount{},
		TopSources:        []SourceCount{},
		RecentErrors:      []*LogRecord{},
	}
}
