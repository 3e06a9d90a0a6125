package flexhog

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_DefaultSilent(t *testing.T) {
	l := Logger()
	require.NotNil(t, l)
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		assert.False(t, l.Enabled(context.Background(), level))
	}
}

func TestLogger_CacheAllocation(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	s, err := New(8, 16, 2)
	require.NoError(t, err)

	r := image.Rect(0, 0, 64, 128)
	s.Extract(rampSource{bins: 9}, r, nil)
	s.Extract(rampSource{bins: 9}, r, nil)
	assert.Equal(t, 1, strings.Count(buf.String(), "cache allocated"))
	assert.Contains(t, buf.String(), "bins=9")

	s.Extract(rampSource{bins: 18}, r, nil)
	assert.Equal(t, 2, strings.Count(buf.String(), "cache allocated"))
}

func TestLogger_SetNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
