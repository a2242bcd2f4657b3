package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "systock.log")
	require.NoError(t, Init(Config{Level: "debug", OutputFile: path, MaxSize: 1, Quiet: true}))
	t.Cleanup(func() { _ = Init(Config{Level: "info", Quiet: true}) })

	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
	assert.Equal(t, path, GetCurrentLogFile())

	WithField("account", "12345678").Infof("token reused")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "token reused"))
	assert.True(t, strings.Contains(string(b), "account=12345678"))
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "chatty", Quiet: true}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.Empty(t, GetCurrentLogFile())
}
