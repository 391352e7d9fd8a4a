package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	"github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

// recordDecorator prepares stored records for display.
type recordDecorator struct {
	users  repository.UserDirectory
	logger *zap.Logger
}

// apply runs age-based resolution and attaches user references. Lookup
// failures are logged and leave the references empty.
func (d recordDecorator) apply(ctx context.Context, now time.Time, records ...*entity.LogRecord) {
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		r.ApplyAgeResolution(now)
		for _, id := range []string{r.UserID, r.ResolvedBy} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if d.users == nil || len(ids) == 0 {
		return
	}

	users, err := d.users.LookupUsers(ctx, ids)
	if err != nil {
		d.logger.Warn("user lookup failed", zap.Error(err), zap.Int("ids", len(ids)))
		return
	}
	for _, r := range records {
		if u, ok := users[r.UserID]; ok {
			ref := u
			r.User = &ref
		}
		if u, ok := users[r.ResolvedBy]; ok {
			ref := u
			r.ResolvedByRef = &ref
		}
	}
}
