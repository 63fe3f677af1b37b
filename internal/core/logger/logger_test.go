package logger

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"causebridge/internal/core/config"
)

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, done := New(config.Log{Level: "info", JSON: true, File: path, MaxSizeMB: 1})
	l.Info("cause verified", zap.Uint("auth_id", 7))
	l.Debug("hidden")
	done()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"cause verified"`)
	assert.Contains(t, string(b), `"auth_id":7`)
	assert.NotContains(t, string(b), "hidden")
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	l, done := Build(Options{Level: "loud"})
	defer done()
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestRedirectStdLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "std.log")
	l, done := Build(Options{Level: "info", JSON: true, Rotate: FileRotate{Enable: true, Filename: path}})
	undo := RedirectStdLog(l, zapcore.WarnLevel)
	log.Print("from stdlib")
	undo()
	done()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "from stdlib")
	assert.Contains(t, string(b), `"level":"warn"`)
}
