package config

import (
	"time"

	"github.com/wekeepgrowing/semo-syslog/pkg/config"
)

// Server HTTP 서버 설정
type Server struct {
	Port            int
	Timeout         int // seconds
	Debug           bool
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// JWT 인증 설정
type JWT struct {
	Secret     string
	Issuer     string
	AdminRoles []string
}

// RateLimit 클라이언트 IP별 요청 제한
type RateLimit struct {
	Enabled  bool
	Backend  string // memory | redis
	Limit    int
	Window   time.Duration
	Capacity int
}

func loadServer(cfg config.Config) Server {
	return Server{
		Port:            cfg.GetInt("server.port"),
		Timeout:         cfg.GetInt("server.timeout"),
		Debug:           cfg.GetBool("server.debug"),
		ShutdownTimeout: cfg.GetDuration("server.shutdown_timeout"),
		CORSOrigins:     cfg.GetStringSlice("server.cors_origins"),
	}
}

func loadJWT(cfg config.Config) JWT {
	return JWT{
		Secret:     cfg.GetString("jwt.secret"),
		Issuer:     cfg.GetString("jwt.issuer"),
		AdminRoles: cfg.GetStringSlice("jwt.admin_roles"),
	}
}

func loadRateLimit(cfg config.Config) RateLimit {
	return RateLimit{
		Enabled:  cfg.GetBool("ratelimit.enabled"),
		Backend:  cfg.GetString("ratelimit.backend"),
		Limit:    cfg.GetInt("ratelimit.limit"),
		Window:   cfg.GetDuration("ratelimit.window"),
		Capacity: cfg.GetInt("ratelimit.capacity"),
	}
}
