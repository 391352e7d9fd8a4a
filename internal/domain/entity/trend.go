package entity

import "time"

// HourLevelCount is the number of records of a level within one absolute hour.
type HourLevelCount struct {
	Hour  time.Time
	Level Level
	Count int64
}

// TrendBucket is one hour of the activity trend.
type TrendBucket struct {
	Start     time.Time `json:"start"`
	HourOfDay int       `json:"hourOfDay"`
	Total     int64     `json:"total"`
	Errors    int64     `json:"errors"`
	Warnings  int64     `json:"warnings"`
}

// TruncateHour returns the start of the hour containing t in loc.
func TruncateHour(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// BuildTrend lays counts onto a dense series of hours ending with the hour of now.
func BuildTrend(counts []HourLevelCount, hours int, now time.Time, loc *time.Location) []TrendBucket {
	end := TruncateHour(now, loc)
	start := end.Add(-time.Duration(hours-1) * time.Hour)

	buckets := make([]TrendBucket, hours)
	index := make(map[int64]int, hours)
	for i := range buckets {
		// Add in absolute time; DST shifts keep one bucket per elapsed hour.
		t := start.Add(time.Duration(i) * time.Hour).In(loc)
		buckets[i] = TrendBucket{Start: t, HourOfDay: t.Hour()}
		index[t.Unix()] = i
	}

	for _, c := range counts {
		i, ok := index[TruncateHour(c.Hour, loc).Unix()]
		if !ok {
			continue
		}
		buckets[i].Total += c.Count
		switch c.Level {
		case LevelError:
			buckets[i].Errors += c.Count
		case LevelWarning:
			buckets[i].Warnings += c.Count
		}
	}
	return buckets
}

// TrendWindowStart is the first instant covered by a trend of the given length.
func TrendWindowStart(hours int, now time.Time, loc *time.Location) time.Time {
	return TruncateHour(now, loc).Add(-time.Duration(hours-1) * time.Hour)
}
