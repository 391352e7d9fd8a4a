package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
)

// logDocument is the BSON shape of a system log.
type logDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Level       string             `bson:"level"`
	Message     string             `bson:"message"`
	Source      string             `bson:"source"`
	Category    string             `bson:"category"`
	Details     bson.M             `bson:"details"`
	UserID      interface{}        `bson:"userId,omitempty"`
	IP          string             `bson:"ip,omitempty"`
	UserAgent   string             `bson:"userAgent,omitempty"`
	RequestID   string             `bson:"requestId,omitempty"`
	StackTrace  string             `bson:"stackTrace,omitempty"`
	Environment string             `bson:"environment"`
	Resolved    bool               `bson:"resolved"`
	ResolvedBy  interface{}        `bson:"resolvedBy,omitempty"`
	ResolvedAt  *time.Time         `bson:"resolvedAt,omitempty"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// toDocument converts the entity to its stored form.
func toDocument(r *entity.LogRecord) *logDocument {
	doc := &logDocument{
		Level:       string(r.Level),
		Message:     r.Message,
		Source:      r.Source,
		Category:    r.Category,
		Details:     bson.M(r.Details),
		UserID:      refToBSON(r.UserID),
		IP:          r.IP,
		UserAgent:   r.UserAgent,
		RequestID:   r.RequestID,
		StackTrace:  r.StackTrace,
		Environment: string(r.Environment),
		Resolved:    r.Resolved,
		ResolvedBy:  refToBSON(r.ResolvedBy),
		ResolvedAt:  r.ResolvedAt,
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(r.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

// toEntity converts a stored document to the entity.
func toEntity(doc *logDocument) *entity.LogRecord {
	details, _ := plainValue(doc.Details).(map[string]interface{})
	if details == nil {
		details = map[string]interface{}{}
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return &entity.LogRecord{
		ID:          doc.ID.Hex(),
		Level:       entity.Level(doc.Level),
		Message:     doc.Message,
		Source:      doc.Source,
		Category:    doc.Category,
		Details:     details,
		UserID:      refFromBSON(doc.UserID),
		IP:          doc.IP,
		UserAgent:   doc.UserAgent,
		RequestID:   doc.RequestID,
		StackTrace:  doc.StackTrace,
		Environment: entity.Environment(doc.Environment),
		Resolved:    doc.Resolved,
		ResolvedBy:  refFromBSON(doc.ResolvedBy),
		ResolvedAt:  utcPtr(doc.ResolvedAt),
		Tags:        tags,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}

// User references are stored as ObjectIDs when they look like one, so they
// stay joinable with the users collection.
func refToBSON(id string) interface{} {
	if id == "" {
		return nil
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func refFromBSON(v interface{}) string {
	switch ref := v.(type) {
	case primitive.ObjectID:
		return ref.Hex()
	case string:
		return ref
	default:
		return ""
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// plainValue turns decoded BSON values into JSON-friendly Go values.
func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = plainValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, e := range val {
			out[k] = plainValue(e)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = plainValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = plainValue(e)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Decimal128:
		return val.String()
	default:
		return val
	}
}
