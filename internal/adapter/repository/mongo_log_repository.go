package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

const hourKeyFormat = "2006-01-02T15"

type mongoLogRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoLogRepository returns a LogRepository backed by a MongoDB collection.
func NewMongoLogRepository(coll *mongo.Collection, logger *zap.Logger) domainRepo.LogRepository {
	return &mongoLogRepository{coll: coll, logger: logger}
}

func (r *mongoLogRepository) Insert(ctx context.Context, record *entity.LogRecord) (string, error) {
	doc := toDocument(record)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert system log: %w", err)
	}
	record.ID = doc.ID.Hex()
	return record.ID, nil
}

func (r *mongoLogRepository) FindByID(ctx context.Context, id string) (*entity.LogRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domainRepo.ErrLogNotFound
	}

	var doc logDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainRepo.ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get system log: %w", err)
	}
	return toEntity(&doc), nil
}

func (r *mongoLogRepository) Find(ctx context.Context, filter entity.LogFilter, skip, limit int64) ([]*entity.LogRecord, int64, error) {
	query := buildFilter(filter)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find system logs: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*entity.LogRecord, 0)
	for cursor.Next(ctx) {
		var doc logDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Warn("skipping undecodable system log", zap.Error(err))
			continue
		}
		records = append(records, toEntity(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate system logs: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count system logs: %w", err)
	}
	return records, total, nil
}

func (r *mongoLogRepository) Count(ctx context.Context, filter entity.LogFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count system logs: %w", err)
	}
	return n, nil
}

func (r *mongoLogRepository) CountByLevel(ctx context.Context, filter entity.LogFilter) ([]entity.LevelCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$level"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	var rows []struct {
		Level string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("failed to count system logs by level: %w", err)
	}

	out := make([]entity.LevelCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.LevelCount{Level: entity.Level(row.Level), Count: row.Count})
	}
	return out, nil
}

func (r *mongoLogRepository) TopSources(ctx context.Context, filter entity.LogFilter, limit int64) ([]entity.SourceCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	var rows []struct {
		Source string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("failed to aggregate top sources: %w", err)
	}

	out := make([]entity.SourceCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.SourceCount{Source: row.Source, Count: row.Count})
	}
	return out, nil
}

func (r *mongoLogRepository) CountBySourceLevel(ctx context.Context, filter entity.LogFilter) ([]entity.SourceLevelCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "source", Value: "$source"}, {Key: "level", Value: "$level"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "lastSeen", Value: bson.D{{Key: "$max", Value: "$createdAt"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id.source", Value: 1}}}},
	}

	var rows []struct {
		ID struct {
			Source string `bson:"source"`
			Level  string `bson:"level"`
		} `bson:"_id"`
		Count    int64     `bson:"count"`
		LastSeen time.Time `bson:"lastSeen"`
	}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("failed to aggregate system status: %w", err)
	}

	out := make([]entity.SourceLevelCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.SourceLevelCount{
			Source:   row.ID.Source,
			Level:    entity.Level(row.ID.Level),
			Count:    row.Count,
			LastSeen: row.LastSeen.UTC(),
		})
	}
	return out, nil
}

func (r *mongoLogRepository) AggregateByHourLevel(ctx context.Context, since time.Time, loc *time.Location) ([]entity.HourLevelCount, error) {
	tz, groupLoc := mongoTimezone(loc, since)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "hour", Value: bson.D{{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: "%Y-%m-%dT%H"},
					{Key: "date", Value: "$createdAt"},
					{Key: "timezone", Value: tz},
				}}}},
				{Key: "level", Value: "$level"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	var rows []struct {
		ID struct {
			Hour  string `bson:"hour"`
			Level string `bson:"level"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("failed to aggregate activity trend: %w", err)
	}

	out := make([]entity.HourLevelCount, 0, len(rows))
	for _, row := range rows {
		hour, err := time.ParseInLocation(hourKeyFormat, row.ID.Hour, groupLoc)
		if err != nil {
			r.logger.Warn("unexpected hour bucket", zap.String("hour", row.ID.Hour), zap.Error(err))
			continue
		}
		out = append(out, entity.HourLevelCount{Hour: hour, Level: entity.Level(row.ID.Level), Count: row.Count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out, nil
}

// mongoTimezone names loc in a form $dateToString accepts and returns the location hour keys are
// parsed in. Zones without an Olson name use their UTC offset at the given instant.
func mongoTimezone(loc *time.Location, at time.Time) (string, *time.Location) {
	if loc == nil || loc == time.UTC {
		return "UTC", time.UTC
	}
	name := loc.String()
	if name != "" && name != "Local" {
		if _, err := time.LoadLocation(name); err == nil {
			return name, loc
		}
	}

	_, offset := at.In(loc).Zone()
	sign, abs := '+', offset
	if offset < 0 {
		sign, abs = '-', -offset
	}
	tz := fmt.Sprintf("%c%02d:%02d", sign, abs/3600, abs%3600/60)
	return tz, time.FixedZone(tz, offset)
}

func (r *mongoLogRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	if field != domainRepo.FieldSource && field != domainRepo.FieldCategory {
		return nil, fmt.Errorf("distinct not supported on field %q", field)
	}

	values, err := r.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *mongoLogRepository) Resolve(ctx context.Context, id, userID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domainRepo.ErrLogNotFound
	}

	// First resolution sets resolvedAt.
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "resolved", Value: bson.D{{Key: "$ne", Value: true}}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "resolved", Value: true},
			{Key: "resolvedBy", Value: refToBSON(userID)},
			{Key: "resolvedAt", Value: at},
			{Key: "updatedAt", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve system log: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Already resolved: only the actor changes.
	res, err = r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "resolvedBy", Value: refToBSON(userID)},
			{Key: "updatedAt", Value: at},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve system log: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainRepo.ErrLogNotFound
	}
	return nil
}

func (r *mongoLogRepository) AutoResolve(ctx context.Context, levels []entity.Level, cutoff, now time.Time) (int64, error) {
	filter := bson.D{
		{Key: "level", Value: bson.D{{Key: "$in", Value: levelStrings(levels)}}},
		{Key: "resolved", Value: bson.D{{Key: "$ne", Value: true}}},
		{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: cutoff}}},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "resolved", Value: true},
			{Key: "resolvedAt", Value: bson.D{{Key: "$add", Value: bson.A{"$createdAt", entity.AutoResolveAge.Milliseconds()}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to auto-resolve system logs: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoLogRepository) DeleteMany(ctx context.Context, filter entity.LogFilter) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to delete system logs: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoLogRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}
