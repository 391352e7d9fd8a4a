package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/adapter/repository"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/dto"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
	"github.com/wekeepgrowing/semo-syslog/internal/usecase"
)

const (
	adminID   = "65f1a2b3c4d5e6f7a8b9c0d1"
	auditorID = "65f1a2b3c4d5e6f7a8b9c0d2"
)

func newQuery(repo domainRepo.LogRepository, clock *fakeClock, audit usecase.EventLogger) *usecase.QueryUseCase {
	users := repository.StaticUserDirectory{
		adminID: {ID: adminID, Username: "admin", Email: "admin@example.com"},
	}
	return usecase.NewQueryUseCase(repo, users, audit, zap.NewNop(), usecase.QueryConfig{}).WithClock(clock.Clock())
}

func TestQueryUseCase_ListLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("pagination", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		for i := 0; i < 23; i++ {
			insert(t, repo, testNow, seed{level: entity.LevelInfo, age: time.Duration(i) * time.Minute})
		}
		uc := newQuery(repo, newFakeClock(testNow), nil)

		res, err := uc.ListLogs(ctx, entity.LogQuery{Page: 3, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, res.Logs, 3)
		assert.Equal(t, entity.Pagination{Current: 3, Pages: 3, Total: 23, HasNext: false, HasPrev: true, Limit: 10}, res.Pagination)

		first, err := uc.ListLogs(ctx, entity.LogQuery{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.True(t, first.Pagination.HasNext)
		assert.False(t, first.Pagination.HasPrev)
		assert.True(t, first.Logs[0].CreatedAt.After(first.Logs[1].CreatedAt))
	})

	t.Run("defaults and limits", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insertN(t, repo, testNow, 120, seed{level: entity.LevelInfo})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		res, err := uc.ListLogs(ctx, entity.LogQuery{})
		require.NoError(t, err)
		assert.Len(t, res.Logs, entity.DefaultPageLimit)
		assert.Equal(t, 1, res.Pagination.Current)

		res, err = uc.ListLogs(ctx, entity.LogQuery{Limit: 500})
		require.NoError(t, err)
		assert.Len(t, res.Logs, entity.MaxPageLimit)
	})

	t.Run("filters are conjunctive", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		match := insert(t, repo, testNow, seed{level: entity.LevelError, message: "database timeout"})
		insert(t, repo, testNow, seed{level: entity.LevelError, message: "disk full"})
		insert(t, repo, testNow, seed{level: entity.LevelWarning, message: "slow timeout"})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		res, err := uc.ListLogs(ctx, entity.LogQuery{Level: "ERROR", Search: "Timeout"})
		require.NoError(t, err)
		require.Len(t, res.Logs, 1)
		assert.Equal(t, match.ID, res.Logs[0].ID)
	})

	t.Run("all levels sentinel", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insert(t, repo, testNow, seed{level: entity.LevelError})
		insert(t, repo, testNow, seed{level: entity.LevelDebug})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		for _, level := range []string{entity.AllLevels, "all levels", "ALL LEVELS"} {
			res, err := uc.ListLogs(ctx, entity.LogQuery{Level: level})
			require.NoError(t, err)
			assert.Equal(t, int64(2), res.Pagination.Total, level)
		}
	})

	t.Run("search covers tags and escapes patterns", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		tagged := insert(t, repo, testNow, seed{level: entity.LevelInfo, tags: []string{"Payment-Gateway"}})
		insert(t, repo, testNow, seed{level: entity.LevelInfo, message: "cache axb"})
		dotted := insert(t, repo, testNow, seed{level: entity.LevelInfo, message: "cache a.b"})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		res, err := uc.ListLogs(ctx, entity.LogQuery{Search: "payment"})
		require.NoError(t, err)
		require.Len(t, res.Logs, 1)
		assert.Equal(t, tagged.ID, res.Logs[0].ID)

		res, err = uc.ListLogs(ctx, entity.LogQuery{Search: "a.b"})
		require.NoError(t, err)
		require.Len(t, res.Logs, 1)
		assert.Equal(t, dotted.ID, res.Logs[0].ID)
	})

	t.Run("time range", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insert(t, repo, testNow, seed{level: entity.LevelInfo, age: 30 * time.Minute})
		insert(t, repo, testNow, seed{level: entity.LevelInfo, age: 2 * time.Hour})
		insert(t, repo, testNow, seed{level: entity.LevelInfo, age: 10 * 24 * time.Hour})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		for rng, want := range map[entity.TimeRange]int64{
			entity.TimeRangeLastHour:    1,
			entity.TimeRangeLast24Hours: 2,
			entity.TimeRangeLast7Days:   2,
			entity.TimeRangeLast30Days:  3,
		} {
			res, err := uc.ListLogs(ctx, entity.LogQuery{TimeRange: string(rng)})
			require.NoError(t, err)
			assert.Equal(t, want, res.Pagination.Total, rng)
		}
	})

	t.Run("resolved filter honours age resolution", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		stale := insert(t, repo, testNow, seed{level: entity.LevelInfo, age: 8 * 24 * time.Hour})
		fresh := insert(t, repo, testNow, seed{level: entity.LevelInfo, age: time.Hour})
		oldError := insert(t, repo, testNow, seed{level: entity.LevelError, age: 8 * 24 * time.Hour})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		resolved, unresolved := true, false
		res, err := uc.ListLogs(ctx, entity.LogQuery{Resolved: &resolved})
		require.NoError(t, err)
		require.Len(t, res.Logs, 1)
		assert.Equal(t, stale.ID, res.Logs[0].ID)
		assert.True(t, res.Logs[0].Resolved)
		require.NotNil(t, res.Logs[0].ResolvedAt)
		assert.True(t, res.Logs[0].ResolvedAt.Equal(stale.CreatedAt.Add(entity.AutoResolveAge)))

		res, err = uc.ListLogs(ctx, entity.LogQuery{Resolved: &unresolved})
		require.NoError(t, err)
		ids := []string{}
		for _, r := range res.Logs {
			ids = append(ids, r.ID)
		}
		assert.ElementsMatch(t, []string{fresh.ID, oldError.ID}, ids)
	})

	t.Run("invalid input", func(t *testing.T) {
		uc := newQuery(repository.NewMemoryLogRepository(), newFakeClock(testNow), nil)

		_, err := uc.ListLogs(ctx, entity.LogQuery{Level: "fatal"})
		assert.ErrorIs(t, err, usecase.ErrInvalidLevel)
		_, err = uc.ListLogs(ctx, entity.LogQuery{TimeRange: "Last Year"})
		assert.ErrorIs(t, err, usecase.ErrInvalidTimeRange)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &failingRepo{MemoryLogRepository: repository.NewMemoryLogRepository(), failFind: true}
		_, err := newQuery(repo, newFakeClock(testNow), nil).ListLogs(ctx, entity.LogQuery{})
		assert.ErrorIs(t, err, errStoreDown)
	})
}

func TestQueryUseCase_ExportLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("caps at the export limit", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insertN(t, repo, testNow, usecase.DefaultExportLimit+5, seed{level: entity.LevelInfo})
		audit := &recordingLogger{}

		doc, err := newQuery(repo, newFakeClock(testNow), audit).ExportLogs(ctx, entity.LogQuery{}, usecase.Actor{})
		require.NoError(t, err)
		assert.Len(t, doc.Logs, 10000)
		assert.Equal(t, 10000, doc.TotalLogs)
		assert.True(t, doc.Truncated)
		assert.Equal(t, "System", doc.ExportedBy)
		assert.NotEmpty(t, doc.ExportID)
		assert.True(t, doc.GeneratedAt.Equal(testNow))

		events := audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "system-logs", events[0].source)
	})

	t.Run("uses the list filters", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insertN(t, repo, testNow, 3, seed{level: entity.LevelError, source: "database"})
		insertN(t, repo, testNow, 4, seed{level: entity.LevelError, source: "api"})
		insertN(t, repo, testNow, 5, seed{level: entity.LevelInfo, source: "database"})

		q := entity.LogQuery{Level: "error", Source: "database"}
		doc, err := newQuery(repo, newFakeClock(testNow), nil).ExportLogs(ctx, q, usecase.Actor{Name: "admin"})
		require.NoError(t, err)
		assert.Equal(t, 3, doc.TotalLogs)
		assert.False(t, doc.Truncated)
		assert.Equal(t, "admin", doc.ExportedBy)
		assert.Equal(t, q, doc.Filters)
		for _, r := range doc.Logs {
			assert.Equal(t, entity.LevelError, r.Level)
			assert.Equal(t, "database", r.Source)
		}
	})
}

func TestQueryUseCase_ClearLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("level and age", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insertN(t, repo, testNow, 3, seed{level: entity.LevelError, age: 8 * 24 * time.Hour})
		keptNew := insert(t, repo, testNow, seed{level: entity.LevelError, age: 6 * 24 * time.Hour})
		keptLevel := insert(t, repo, testNow, seed{level: entity.LevelWarning, age: 8 * 24 * time.Hour})
		audit := &recordingLogger{}
		uc := newQuery(repo, newFakeClock(testNow), audit)

		res, err := uc.ClearLogs(ctx, dto.ClearRequest{Level: "error", OlderThanDays: 7, ActorID: adminID, ActorName: "admin"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.DeletedCount)
		assert.Equal(t, 2, repo.Len())

		_, err = repo.FindByID(ctx, keptNew.ID)
		assert.NoError(t, err)
		_, err = repo.FindByID(ctx, keptLevel.ID)
		assert.NoError(t, err)

		events := audit.Events()
		require.Len(t, events, 1)
		assert.Equal(t, entity.LevelWarning, events[0].level)
		assert.Equal(t, "admin cleared 3 system logs", events[0].message)
		assert.Equal(t, adminID, events[0].opts.UserID)
		assert.Equal(t, int64(3), events[0].opts.Details["deletedCount"])
	})

	t.Run("unfiltered clear must be explicit", func(t *testing.T) {
		repo := repository.NewMemoryLogRepository()
		insertN(t, repo, testNow, 4, seed{level: entity.LevelInfo})
		uc := newQuery(repo, newFakeClock(testNow), nil)

		_, err := uc.ClearLogs(ctx, dto.ClearRequest{})
		assert.ErrorIs(t, err, usecase.ErrUnfilteredClear)
		_, err = uc.ClearLogs(ctx, dto.ClearRequest{Level: entity.AllLevels})
		assert.ErrorIs(t, err, usecase.ErrUnfilteredClear)
		assert.Equal(t, 4, repo.Len())

		res, err := uc.ClearLogs(ctx, dto.ClearRequest{All: true})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.DeletedCount)
		assert.Equal(t, 0, repo.Len())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := newQuery(repository.NewMemoryLogRepository(), newFakeClock(testNow), nil).
			ClearLogs(ctx, dto.ClearRequest{Level: "critical"})
		assert.ErrorIs(t, err, usecase.ErrInvalidLevel)
	})
}

func TestQueryUseCase_ResolveLog(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryLogRepository()
	rec := insert(t, repo, testNow, seed{level: entity.LevelError, message: "connection refused by upstream service while syncing"})
	clock := newFakeClock(testNow)
	audit := &recordingLogger{}
	uc := newQuery(repo, clock, audit)

	first, err := uc.ResolveLog(ctx, rec.ID, usecase.Actor{ID: adminID, Name: "admin"})
	require.NoError(t, err)
	assert.True(t, first.Resolved)
	assert.Equal(t, adminID, first.ResolvedBy)
	require.NotNil(t, first.ResolvedByRef)
	assert.Equal(t, "admin", first.ResolvedByRef.Username)

	clock.Advance(time.Hour)
	second, err := uc.ResolveLog(ctx, rec.ID, usecase.Actor{ID: auditorID, Name: "auditor"})
	require.NoError(t, err)
	assert.True(t, second.Resolved)
	assert.Equal(t, auditorID, second.ResolvedBy)
	assert.Nil(t, second.ResolvedByRef, "unknown users are left empty")
	require.NotNil(t, second.ResolvedAt)
	assert.True(t, second.ResolvedAt.Equal(testNow), "first resolvedAt is kept")

	events := audit.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "admin resolved system log: connection refused by upstream service while synci...", events[0].message)

	t.Run("unknown id", func(t *testing.T) {
		_, err := uc.ResolveLog(ctx, "65f1a2b3c4d5e6f7a8b9ffff", usecase.Actor{ID: adminID})
		assert.ErrorIs(t, err, usecase.ErrLogNotFound)
		_, err = uc.GetLog(ctx, "not-an-id")
		assert.ErrorIs(t, err, usecase.ErrLogNotFound)
	})
}

func TestQueryUseCase_GetFilterOptions(t *testing.T) {
	repo := repository.NewMemoryLogRepository()
	insert(t, repo, testNow, seed{level: entity.LevelInfo, source: "database", category: "performance"})
	insert(t, repo, testNow, seed{level: entity.LevelInfo, source: "api", category: "security"})
	insert(t, repo, testNow, seed{level: entity.LevelInfo, source: "api"})

	opts, err := newQuery(repo, newFakeClock(testNow), nil).GetFilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []dto.FilterOption{{Value: "api", Label: "Api"}, {Value: "database", Label: "Database"}}, opts.Sources)
	assert.Equal(t, []dto.FilterOption{
		{Value: "performance", Label: "Performance"},
		{Value: "security", Label: "Security"},
		{Value: "system", Label: "System"},
	}, opts.Categories)
	require.Len(t, opts.Levels, 5)
	assert.Equal(t, entity.AllLevels, opts.Levels[0].Value)
	assert.Equal(t, "Error", opts.Levels[1].Label)
	assert.Equal(t, []string{"Last Hour", "Last 24 Hours", "Last 7 Days", "Last 30 Days"}, opts.TimeRanges)
	assert.Equal(t, []string{"development", "staging", "production"}, opts.Environments)
}

func TestQueryUseCase_PopulatesUsers(t *testing.T) {
	repo := repository.NewMemoryLogRepository()
	rec := &entity.LogRecord{Level: entity.LevelInfo, Message: "login", Source: "auth", UserID: adminID}
	rec.Normalize(testNow, entity.EnvProduction)
	_, err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)

	dangling := &entity.LogRecord{Level: entity.LevelInfo, Message: "login", Source: "auth", UserID: "deleted-user"}
	dangling.Normalize(testNow, entity.EnvProduction)
	_, err = repo.Insert(context.Background(), dangling)
	require.NoError(t, err)

	res, err := newQuery(repo, newFakeClock(testNow), nil).ListLogs(context.Background(), entity.LogQuery{Source: "auth"})
	require.NoError(t, err)
	require.Len(t, res.Logs, 2)

	found := map[string]*entity.LogRecord{}
	for _, r := range res.Logs {
		found[r.UserID] = r
	}
	require.NotNil(t, found[adminID].User)
	assert.Equal(t, "admin@example.com", found[adminID].User.Email)
	assert.Nil(t, found["deleted-user"].User, fmt.Sprintf("dangling reference %s", dangling.ID))
}
