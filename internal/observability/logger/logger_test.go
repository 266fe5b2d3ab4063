package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFrom_FallsBackToSingleton(t *testing.T) {
	require.Same(t, L(), From(context.Background()))
	//nolint:staticcheck
	require.Same(t, L(), From(nil))
}

func TestFrom_ReturnsScopedLogger(t *testing.T) {
	scoped := zap.NewNop()
	ctx := ToContext(context.Background(), scoped)
	require.Same(t, scoped, From(ctx))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in), "level %q", in)
	}
}
