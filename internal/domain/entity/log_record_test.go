package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" Error ")
	assert.True(t, ok)
	assert.Equal(t, LevelError, l)

	_, ok = ParseLevel("fatal")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	r := &LogRecord{
		Message:    "  " + strings.Repeat("é", MaxMessageLength+5) + "  ",
		Tags:       []string{" db "},
		ResolvedBy: "u-1",
	}
	r.Normalize(now, EnvStaging)

	assert.Equal(t, MaxMessageLength, len([]rune(r.Message)))
	assert.Equal(t, DefaultCategory, r.Category)
	assert.Equal(t, EnvStaging, r.Environment)
	assert.Equal(t, []string{"db"}, r.Tags)
	assert.NotNil(t, r.Details)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now, r.UpdatedAt)
	assert.Empty(t, r.ResolvedBy, "unresolved records carry no resolver")
	assert.Nil(t, r.ResolvedAt)
}

func TestNormalizeKeepsValidEnvironmentAndTime(t *testing.T) {
	created := now.Add(-time.Hour)
	r := &LogRecord{Environment: EnvProduction, CreatedAt: created, Resolved: true}
	r.Normalize(now, EnvDevelopment)

	assert.Equal(t, EnvProduction, r.Environment)
	assert.Equal(t, created, r.CreatedAt)
	require.NotNil(t, r.ResolvedAt)
	assert.Equal(t, now, *r.ResolvedAt)
}

func TestApplyAgeResolution(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		age   time.Duration
		want  bool
	}{
		{"old info", LevelInfo, 8 * 24 * time.Hour, true},
		{"old debug", LevelDebug, 30 * 24 * time.Hour, true},
		{"exactly seven days", LevelInfo, AutoResolveAge, false},
		{"recent info", LevelInfo, 6 * 24 * time.Hour, false},
		{"old error", LevelError, 60 * 24 * time.Hour, false},
		{"old warning", LevelWarning, 60 * 24 * time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := now.Add(-tt.age)
			r := &LogRecord{Level: tt.level, CreatedAt: created}

			assert.Equal(t, tt.want, r.ApplyAgeResolution(now))
			assert.Equal(t, tt.want, r.Resolved)
			if tt.want {
				require.NotNil(t, r.ResolvedAt)
				assert.Equal(t, created.Add(AutoResolveAge), *r.ResolvedAt)
				assert.Empty(t, r.ResolvedBy)
			}
		})
	}
}

func TestResolveKeepsFirstTimestamp(t *testing.T) {
	r := &LogRecord{Level: LevelError, CreatedAt: now.Add(-time.Hour)}
	first := now.Add(-30 * time.Minute)

	r.Resolve("u-1", first)
	r.Resolve("u-2", now)

	assert.True(t, r.Resolved)
	assert.Equal(t, "u-2", r.ResolvedBy)
	assert.Equal(t, first, *r.ResolvedAt)
	assert.Equal(t, now, r.UpdatedAt)
}

func TestCloneIsDeep(t *testing.T) {
	at := now
	r := &LogRecord{Details: map[string]interface{}{"k": 1}, Tags: []string{"a"}, ResolvedAt: &at}
	c := r.Clone()

	c.Details["k"] = 2
	c.Tags[0] = "b"
	*c.ResolvedAt = now.Add(time.Hour)

	assert.Equal(t, 1, r.Details["k"])
	assert.Equal(t, "a", r.Tags[0])
	assert.Equal(t, now, *r.ResolvedAt)
	assert.Nil(t, (*LogRecord)(nil).Clone())
}
