package logx

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Level(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init("WARN"))
	require.False(t, L().Core().Enabled(zapcore.InfoLevel))
	require.True(t, L().Core().Enabled(zapcore.WarnLevel))
}

func TestSet(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	L().Info("sql.query_start")
	require.Equal(t, 1, logs.FilterMessage("sql.query_start").Len())
}
