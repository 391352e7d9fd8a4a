package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-syslog/internal/config"
)

// Mongo MongoDB 연결과 사용하는 컬렉션
type Mongo struct {
	Client *mongo.Client
	Logs   *mongo.Collection
	Users  *mongo.Collection
	logger *zap.Logger
}

// NewMongo MongoDB에 연결하고 ping으로 확인합니다.
func NewMongo(ctx context.Context, cfg config.MongoDB, logger *zap.Logger) (*Mongo, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("MongoDB 연결 실패: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping 실패: %w", err)
	}

	database := client.Database(cfg.Database)
	logger.Info("MongoDB 연결 완료",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &Mongo{
		Client: client,
		Logs:   database.Collection(cfg.Collection),
		Users:  database.Collection(cfg.UsersCollection),
		logger: logger,
	}, nil
}

// LogIndexes are the secondary indexes of the system log collection.
func LogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt_desc")},
		{Keys: bson.D{{Key: "level", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("level_createdAt")},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("source_createdAt")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("category_createdAt")},
		{Keys: bson.D{{Key: "resolved", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("resolved_createdAt")},
		{Keys: bson.D{{Key: "environment", Value: 1}}, Options: options.Index().SetName("environment")},
		{Keys: bson.D{{Key: "tags", Value: 1}}, Options: options.Index().SetName("tags")},
	}
}

// EnsureLogIndexes 로그 컬렉션 인덱스 생성. 이미 있으면 아무것도 하지 않습니다.
func (m *Mongo) EnsureLogIndexes(ctx context.Context) error {
	names, err := m.Logs.Indexes().CreateMany(ctx, LogIndexes())
	if err != nil {
		return fmt.Errorf("인덱스 생성 실패: %w", err)
	}
	m.logger.Debug("로그 인덱스 확인 완료", zap.Strings("indexes", names))
	return nil
}

// Ping 연결 상태 확인
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// Close 연결 종료
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("MongoDB 연결 종료 실패: %w", err)
	}
	m.logger.Info("MongoDB 연결 종료됨")
	return nil
}
