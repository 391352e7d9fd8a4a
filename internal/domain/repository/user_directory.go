package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// UserDirectory resolves weak user references for display.
// Unknown or malformed ids are omitted from the result, never reported as errors.
type UserDirectory interface {
	LookupUsers(ctx context.Context, ids []string) (map[string]entity.UserRef, error)
}
