package repository

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// buildFilter translates a LogFilter into a MongoDB query document.
func buildFilter(f entity.LogFilter) bson.D {
	filter := bson.D{}
	var and bson.A

	if len(f.Levels) == 1 {
		filter = append(filter, bson.E{Key: "level", Value: string(f.Levels[0])})
	} else if len(f.Levels) > 1 {
		filter = append(filter, bson.E{Key: "level", Value: bson.D{{Key: "$in", Value: levelStrings(f.Levels)}}})
	}
	if f.Source != "" {
		filter = append(filter, bson.E{Key: "source", Value: f.Source})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if len(f.Categories) > 0 {
		and = append(and, bson.D{{Key: "category", Value: bson.D{{Key: "$in", Value: f.Categories}}}})
	}
	if f.Environment != "" {
		filter = append(filter, bson.E{Key: "environment", Value: string(f.Environment)})
	}

	if created := timeBounds(f); len(created) > 0 {
		filter = append(filter, bson.E{Key: "createdAt", Value: created})
	}

	if f.Resolved != nil {
		and = append(and, resolvedClause(*f.Resolved, f.StaleBefore))
	}

	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		and = append(and, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "message", Value: re}},
			bson.D{{Key: "source", Value: re}},
			bson.D{{Key: "category", Value: re}},
			bson.D{{Key: "tags", Value: re}},
		}}})
	}

	if len(and) > 0 {
		filter = append(filter, bson.E{Key: "$and", Value: and})
	}
	return filter
}

func timeBounds(f entity.LogFilter) bson.D {
	var created bson.D
	if !f.Since.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: f.Since})
	}
	if !f.Before.IsZero() {
		created = append(created, bson.E{Key: "$lt", Value: f.Before})
	}
	return created
}

// resolvedClause matches the effective resolution state, treating stale
// info/debug records as resolved when staleBefore is set.
func resolvedClause(resolved bool, staleBefore time.Time) bson.D {
	if staleBefore.IsZero() {
		if resolved {
			return bson.D{{Key: "resolved", Value: true}}
		}
		return bson.D{{Key: "resolved", Value: bson.D{{Key: "$ne", Value: true}}}}
	}

	stale := bson.D{
		{Key: "level", Value: bson.D{{Key: "$in", Value: levelStrings(entity.AutoResolveLevels)}}},
		{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: staleBefore}}},
	}
	if resolved {
		return bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "resolved", Value: true}},
			stale,
		}}}
	}
	return bson.D{
		{Key: "resolved", Value: bson.D{{Key: "$ne", Value: true}}},
		{Key: "$nor", Value: bson.A{stale}},
	}
}

func levelStrings(levels []entity.Level) bson.A {
	out := make(bson.A, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}
