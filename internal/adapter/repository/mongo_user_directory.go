package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	domainRepo "github.com/wekeepgrowing/semo-syslog/internal/domain/repository"
)

type mongoUserDirectory struct {
	coll *mongo.Collection
}

// NewMongoUserDirectory looks users up in the dashboard's users collection.
func NewMongoUserDirectory(coll *mongo.Collection) domainRepo.UserDirectory {
	return &mongoUserDirectory{coll: coll}
}

func (d *mongoUserDirectory) LookupUsers(ctx context.Context, ids []string) (map[string]entity.UserRef, error) {
	oids := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	out := make(map[string]entity.UserRef, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}})
	cursor, err := d.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}

	var rows []struct {
		ID       primitive.ObjectID `bson:"_id"`
		Username string             `bson:"username"`
		Email    string             `bson:"email"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for _, row := range rows {
		out[row.ID.Hex()] = entity.UserRef{ID: row.ID.Hex(), Username: row.Username, Email: row.Email}
	}
	return out, nil
}

// StaticUserDirectory serves lookups from a fixed map.
type StaticUserDirectory map[string]entity.UserRef

func (d StaticUserDirectory) LookupUsers(_ context.Context, ids []string) (map[string]entity.UserRef, error) {
	out := make(map[string]entity.UserRef, len(ids))
	for _, id := range ids {
		if u, ok := d[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
