package entity

import (
	"strings"
	"time"
)

// Level is the severity of a log record.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelDebug   Level = "debug"
)

// Levels lists every severity, most severe first.
var Levels = []Level{LevelError, LevelWarning, LevelInfo, LevelDebug}

// ParseLevel matches a level case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

func (l Level) Valid() bool {
	switch l {
	case LevelError, LevelWarning, LevelInfo, LevelDebug:
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }

// Environment is the deployment stage a record was emitted from.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Environments lists every accepted environment.
var Environments = []Environment{EnvDevelopment, EnvStaging, EnvProduction}

func (e Environment) Valid() bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

const (
	// DefaultCategory is applied when a record has none.
	DefaultCategory = "system"

	MaxMessageLength  = 1000
	MaxCategoryLength = 50
	MaxTagLength      = 30

	// AutoResolveAge is the age after which info and debug records count as resolved.
	AutoResolveAge = 7 * 24 * time.Hour
)

// AutoResolveLevels are the levels subject to age-based resolution.
var AutoResolveLevels = []Level{LevelInfo, LevelDebug}

// LogRecord is a single stored event.
type LogRecord struct {
	ID          string                 `json:"id"`
	Level       Level                  `json:"level"`
	Message     string                 `json:"message"`
	Source      string                 `json:"source"`
	Category    string                 `json:"category"`
	Details     map[string]interface{} `json:"details"`
	UserID      string                 `json:"userId,omitempty"`
	IP          string                 `json:"ip,omitempty"`
	UserAgent   string                 `json:"userAgent,omitempty"`
	RequestID   string                 `json:"requestId,omitempty"`
	StackTrace  string                 `json:"stackTrace,omitempty"`
	Environment Environment            `json:"environment"`
	Resolved    bool                   `json:"resolved"`
	ResolvedBy  string                 `json:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time             `json:"resolvedAt,omitempty"`
	Tags        []string               `json:"tags"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`

	// Best-effort lookups of UserID and ResolvedBy, filled at read time.
	User          *UserRef `json:"user,omitempty"`
	ResolvedByRef *UserRef `json:"resolvedByUser,omitempty"`
}

// UserRef is the display projection of a referenced user.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Normalize fills defaults before the record is stored.
func (r *LogRecord) Normalize(now time.Time, env Environment) {
	r.Message = strings.TrimSpace(r.Message)
	if runes := []rune(r.Message); len(runes) > MaxMessageLength {
		r.Message = string(runes[:MaxMessageLength])
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	for i, t := range r.Tags {
		r.Tags[i] = strings.TrimSpace(t)
	}
	if !r.Environment.Valid() {
		r.Environment = env
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt
	if !r.Resolved {
		r.ResolvedBy = ""
		r.ResolvedAt = nil
	} else if r.ResolvedAt == nil {
		at := now
		r.ResolvedAt = &at
	}
}

// IsStale reports whether the record is due for age-based resolution.
func (r *LogRecord) IsStale(now time.Time) bool {
	if r.Resolved || (r.Level != LevelInfo && r.Level != LevelDebug) {
		return false
	}
	return now.Sub(r.CreatedAt) > AutoResolveAge
}

// ApplyAgeResolution marks a stale info or debug record as resolved.
// resolvedAt is the moment the record crossed the age threshold.
func (r *LogRecord) ApplyAgeResolution(now time.Time) bool {
	if !r.IsStale(now) {
		return false
	}
	at := r.CreatedAt.Add(AutoResolveAge)
	r.Resolved = true
	r.ResolvedAt = &at
	return true
}

// Resolve marks the record resolved by userID. The first resolvedAt is kept.
func (r *LogRecord) Resolve(userID string, at time.Time) {
	if !r.Resolved || r.ResolvedAt == nil {
		t := at
		r.ResolvedAt = &t
	}
	r.Resolved = true
	r.ResolvedBy = userID
	r.UpdatedAt = at
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *LogRecord) Clone() *LogRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Details != nil {
		c.Details = make(map[string]interface{}, len(r.Details))
		for k, v := range r.Details {
			c.Details[k] = v
		}
	}
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
