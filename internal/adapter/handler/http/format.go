package http

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// TrendPoint is one chart point of the activity trend.
type TrendPoint struct {
	Label  string    `json:"label"`
	Value  int64     `json:"value"`
	Errors int64     `json:"errors"`
	Start  time.Time `json:"start"`
}

// StatCard is one dashboard tile.
type StatCard struct {
	Title    string `json:"title"`
	Value    string `json:"value"`
	Subtitle string `json:"subtitle"`
	Icon     string `json:"icon"`
	Tone     string `json:"tone"`
}

// Alert is the compact view of a recent error or warning.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// OverviewResponse is the body of GET /overview.
type OverviewResponse struct {
	Stats         []StatCard           `json:"stats"`
	RecentAlerts  []Alert              `json:"recentAlerts"`
	SystemHealth  *entity.SystemHealth `json:"systemHealth"`
	ActivityTrend []TrendPoint         `json:"activityTrend"`
}

func hourLabel(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h == 12:
		return "12 PM"
	case h > 12:
		return fmt.Sprintf("%d PM", h-12)
	}
	return fmt.Sprintf("%d AM", h)
}

// trendPoints keeps every step-th bucket, starting with the oldest.
func trendPoints(buckets []entity.TrendBucket, step int) []TrendPoint {
	if step < 1 {
		step = 1
	}
	out := make([]TrendPoint, 0, (len(buckets)+step-1)/step)
	for i := 0; i < len(buckets); i += step {
		b := buckets[i]
		out = append(out, TrendPoint{
			Label:  hourLabel(b.HourOfDay),
			Value:  b.Total,
			Errors: b.Errors,
			Start:  b.Start,
		})
	}
	return out
}

func timeAgo(now, t time.Time, loc *time.Location) string {
	d := now.Sub(t)
	minutes := int(d / time.Minute)
	hours := int(d / time.Hour)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return plural(minutes, "min") + " ago"
	case hours < 24:
		return plural(hours, "hr") + " ago"
	}
	return "at " + t.In(loc).Format("3:04:05 PM")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func alerts(records []*entity.LogRecord, now time.Time, loc *time.Location) []Alert {
	out := make([]Alert, 0, len(records))
	for _, r := range records {
		out = append(out, Alert{
			ID:        r.ID,
			Type:      string(r.Level),
			Message:   r.Message,
			Source:    r.Source,
			Timestamp: timeAgo(now, r.CreatedAt, loc),
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

func statCards(stats *entity.LogStatistics, uptime string) []StatCard {
	p := message.NewPrinter(language.English)
	return []StatCard{
		{Title: "Total Logs", Value: p.Sprintf("%d", stats.TotalLogs), Subtitle: "All recorded events", Icon: "📊", Tone: "blue"},
		{Title: "Errors Today", Value: p.Sprintf("%d", stats.Today.Errors), Subtitle: "Critical failures", Icon: "⚠️", Tone: "red"},
		{Title: "Warnings Today", Value: p.Sprintf("%d", stats.Today.Warnings), Subtitle: "Moderate issues", Icon: "⚠️", Tone: "yellow"},
		{Title: "System Uptime", Value: uptime + "%", Subtitle: "Last 24 hours", Icon: "✅", Tone: "green"},
	}
}

func formatCount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
