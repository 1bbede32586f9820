package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.FatalLevel, ParseLevel("fatal"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNamedReturnsUsableLogger(t *testing.T) {
	l := Named("test")
	assert.NotNil(t, l)
	l.Info("logger ready")
	Sync()
}

func TestPackageHelpersRespectLevel(t *testing.T) {
	Init(nil)
	defer level.SetLevel(zapcore.InfoLevel)

	Silence()
	assert.False(t, shared().Core().Enabled(zapcore.WarnLevel))
	Warn("dropped")

	EnableDebug()
	assert.True(t, shared().Core().Enabled(zapcore.DebugLevel))
	Debug("kept")
}
