package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireZone(t *testing.T, name string) {
	t.Helper()
	if _, err := time.LoadLocation(name); err != nil {
		t.Skip("tzdata not available")
	}
}

// unsetTZ clears TZ for the test and restores it afterwards.
func unsetTZ(t *testing.T) {
	t.Helper()
	t.Setenv("TZ", "")
	require.NoError(t, os.Unsetenv("TZ"))
}

func useLocaltime(t *testing.T, path string) {
	t.Helper()
	prev := localtimePath
	localtimePath = path
	t.Cleanup(func() { localtimePath = prev })
}

func TestResolveLocationNamed(t *testing.T) {
	requireZone(t, "Asia/Kolkata")

	loc, err := resolveLocation("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	_, err = resolveLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestResolveLocalFromTZ(t *testing.T) {
	requireZone(t, "Asia/Kolkata")

	t.Setenv("TZ", "Asia/Kolkata")
	loc, err := resolveLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String(), "Local must resolve to a named zone")

	t.Setenv("TZ", ":/usr/share/zoneinfo/Asia/Kolkata")
	loc, err = resolveLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	t.Setenv("TZ", "")
	loc, err = resolveLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestResolveLocalFromLocaltimeLink(t *testing.T) {
	requireZone(t, "Australia/Adelaide")
	unsetTZ(t)

	link := filepath.Join(t.TempDir(), "localtime")
	require.NoError(t, os.Symlink("/usr/share/zoneinfo/Australia/Adelaide", link))
	useLocaltime(t, link)

	loc, err := resolveLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, "Australia/Adelaide", loc.String())
}

func TestResolveLocalWithoutLocaltime(t *testing.T) {
	unsetTZ(t)
	useLocaltime(t, filepath.Join(t.TempDir(), "missing"))

	loc, err := resolveLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestResolveLocalRejectsUnlinkedLocaltime(t *testing.T) {
	unsetTZ(t)
	path := filepath.Join(t.TempDir(), "localtime")
	require.NoError(t, os.WriteFile(path, []byte("TZif"), 0o600))
	useLocaltime(t, path)

	_, err := resolveLocation("Local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service.timezone")
}
