package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger_WritesLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.With("transfer_id", "t-1").Warn(context.Background(), "slow chunk", "chunk_id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))

	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "slow chunk", rec["message"])
	assert.Equal(t, "t-1", rec["transfer_id"])
	assert.EqualValues(t, 7, rec["chunk_id"])
}

func TestZerologLogger_AllLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	l.Debug(ctx, "d")
	l.Info(ctx, "i")
	l.Warn(ctx, "w")
	l.Error(ctx, "e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	for i, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, lines[i], `"level":"`+lvl+`"`)
	}
}
