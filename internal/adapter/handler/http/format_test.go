package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "Just now"},
		{time.Minute, "1 min ago"},
		{59 * time.Minute, "59 mins ago"},
		{time.Hour, "1 hr ago"},
		{23 * time.Hour, "23 hrs ago"},
		{25 * time.Hour, "at 2:30:00 PM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timeAgo(now, now.Add(-tt.ago), time.UTC), tt.ago.String())
	}
}

func TestHourLabel(t *testing.T) {
	assert.Equal(t, "12 AM", hourLabel(0))
	assert.Equal(t, "9 AM", hourLabel(9))
	assert.Equal(t, "12 PM", hourLabel(12))
	assert.Equal(t, "11 PM", hourLabel(23))
}

func TestTrendPointsStep(t *testing.T) {
	buckets := make([]entity.TrendBucket, 5)
	for i := range buckets {
		buckets[i] = entity.TrendBucket{HourOfDay: i, Total: int64(i)}
	}

	points := trendPoints(buckets, 2)
	assert.Len(t, points, 3)
	assert.Equal(t, "12 AM", points[0].Label)
	assert.Equal(t, int64(4), points[2].Value)

	assert.Len(t, trendPoints(buckets, 0), 5)
}

func TestStatCardsGroupThousands(t *testing.T) {
	stats := entity.EmptyStatistics()
	stats.TotalLogs = 1234567
	cards := statCards(stats, "99.90")
	assert.Equal(t, "1,234,567", cards[0].Value)
	assert.Equal(t, "99.90%", cards[3].Value)
}
