package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// 호스트 시간대 링크. 테스트에서 교체합니다.
var localtimePath = "/etc/localtime"

// resolveLocation service.timezone 값을 Location으로 변환합니다.
// "Local"은 호스트의 IANA 이름으로 풀어서 DB 쪽 시간 버킷과 같은 규칙을 쓰게 합니다.
func resolveLocation(name string) (*time.Location, error) {
	if name != "" && name != "Local" {
		return time.LoadLocation(name)
	}

	if tz, ok := os.LookupEnv("TZ"); ok {
		tz = strings.TrimPrefix(tz, ":")
		if tz == "" {
			return time.UTC, nil
		}
		return time.LoadLocation(zoneName(tz))
	}

	target, err := os.Readlink(localtimePath)
	if errors.Is(err, fs.ErrNotExist) {
		return time.UTC, nil
	}
	if err != nil {
		return nil, fmt.Errorf("호스트 시간대를 확인할 수 없습니다. service.timezone을 명시하세요: %w", err)
	}
	name = zoneName(target)
	if strings.HasPrefix(name, "/") {
		return nil, fmt.Errorf("호스트 시간대를 확인할 수 없습니다 (%s). service.timezone을 명시하세요", target)
	}
	return time.LoadLocation(name)
}

// zoneName zoneinfo 경로에서 "Asia/Seoul" 같은 이름만 남깁니다.
func zoneName(path string) string {
	if i := strings.LastIndex(path, "zoneinfo/"); i >= 0 {
		return path[i+len("zoneinfo/"):]
	}
	return path
}
