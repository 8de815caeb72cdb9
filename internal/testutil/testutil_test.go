package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	for _, v := range []string{"", "0", "false", "no"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.False(t, envBool("TESTUTIL_FLAG"), v)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TESTUTIL_VALUE", "")
	assert.Equal(t, "fallback", getEnvOrDefault("TESTUTIL_VALUE", "fallback"))

	t.Setenv("TESTUTIL_VALUE", "set")
	assert.Equal(t, "set", getEnvOrDefault("TESTUTIL_VALUE", "fallback"))
}

func TestTempSQLitePath(t *testing.T) {
	p := TempSQLitePath(t)
	assert.Equal(t, "storage.db", filepath.Base(p))

	info, err := os.Stat(filepath.Dir(p))
	assert.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWaitFor(t *testing.T) {
	start := time.Now()
	WaitFor(t, time.Second, func() bool { return time.Since(start) > 10*time.Millisecond })
}
