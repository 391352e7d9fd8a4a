package config

import (
	"time"

	"github.com/wekeepgrowing/semo-syslog/pkg/config"
)

// 이벤트 저장소 드라이버
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Store 저장소 선택. memory는 로컬 실행용이며 프로세스 종료 시 데이터가 사라집니다.
type Store struct {
	Driver string
}

// MongoDB 이벤트 저장소 설정
type MongoDB struct {
	URI             string
	Username        string
	Password        string
	Database        string
	Collection      string
	UsersCollection string
	ConnectTimeout  time.Duration
}

// Redis 설정. 알림 pub/sub과 요청 제한 저장소에 사용됩니다.
type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// RabbitMQ 알림 발행 설정
type RabbitMQ struct {
	Enabled  bool
	URL      string
	Exchange string
}

func loadStore(cfg config.Config) Store {
	return Store{Driver: cfg.GetString("store.driver")}
}

func loadMongoDB(cfg config.Config) MongoDB {
	return MongoDB{
		URI:             cfg.GetString("mongodb.uri"),
		Username:        cfg.GetString("mongodb.username"),
		Password:        cfg.GetString("mongodb.password"),
		Database:        cfg.GetString("mongodb.database"),
		Collection:      cfg.GetString("mongodb.collection"),
		UsersCollection: cfg.GetString("mongodb.users_collection"),
		ConnectTimeout:  cfg.GetDuration("mongodb.connect_timeout"),
	}
}

func loadRedis(cfg config.Config) Redis {
	return Redis{
		Enabled:  cfg.GetBool("redis.enabled"),
		Addr:     cfg.GetString("redis.addr"),
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
	}
}

func loadRabbitMQ(cfg config.Config) RabbitMQ {
	return RabbitMQ{
		Enabled:  cfg.GetBool("rabbitmq.enabled"),
		URL:      cfg.GetString("rabbitmq.url"),
		Exchange: cfg.GetString("rabbitmq.exchange"),
	}
}
