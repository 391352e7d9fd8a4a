package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

func TestDocumentUserReferences(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := toDocument(&entity.LogRecord{ID: "not-an-oid", UserID: oid.Hex(), ResolvedBy: "legacy-user"})

	assert.True(t, doc.ID.IsZero())
	assert.Equal(t, oid, doc.UserID)
	assert.Equal(t, "legacy-user", doc.ResolvedBy)
	assert.Nil(t, refToBSON(""))
}

func TestToEntityFlattensBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))
	doc := &logDocument{
		ID:    oid,
		Level: "error",
		Details: bson.M{
			"nested": bson.D{{Key: "ref", Value: oid}},
			"list":   bson.A{int32(1), primitive.NewDateTimeFromTime(at)},
		},
		UserID:    oid,
		CreatedAt: at,
	}

	r := toEntity(doc)
	assert.Equal(t, oid.Hex(), r.ID)
	assert.Equal(t, oid.Hex(), r.UserID)
	assert.Equal(t, map[string]interface{}{"ref": oid.Hex()}, r.Details["nested"])
	assert.Equal(t, []interface{}{int32(1), at.UTC()}, r.Details["list"])
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.Equal(t, []string{}, r.Tags)
}
