// Package config는 애플리케이션 설정을 관리하는 패키지입니다.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	GetStringMapString(key string) map[string]string
	IsSet(key string) bool
	ConfigFileUsed() string
}

// viperConfig는 viper를 사용하여 Config 인터페이스를 구현합니다.
type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *viperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *viperConfig) GetStringSlice(key string) []string   { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *viperConfig) ConfigFileUsed() string               { return c.v.ConfigFileUsed() }
func (c *viperConfig) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// 설정 디렉토리 경로
const configDir = "configs"

// ErrNoConfigFile은 어떤 경로에서도 설정 파일을 찾지 못했을 때 반환됩니다.
var ErrNoConfigFile = errors.New("설정 파일을 찾을 수 없습니다")

// Load는 서비스 이름에 해당하는 설정 파일을 로드합니다.
//
// 탐색 순서: configFile 인자 > CONFIG_PATH/{service}.yaml > configs/{APP_ENV}/{service}.yaml > configs/example/{service}.yaml.
// 설정 파일이 전혀 없으면 defaults와 환경 변수만으로 동작합니다.
func Load(serviceName, configFile string, defaults map[string]interface{}) (Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 환경 변수 바인딩 설정 (예: SYSLOG_MONGODB_URI)
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
		return &viperConfig{v: v}, nil
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 기본 환경은 dev
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}

	v.SetConfigType("yaml")
	v.SetConfigName(serviceName)
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
		if len(defaults) == 0 {
			return nil, ErrNoConfigFile
		}
	}

	return &viperConfig{v: v}, nil
}
