package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"id":     "BIZ-1",
		"raw":    []byte("bytes"),
		"float":  12.5,
		"int":    int64(7),
		"native": time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
		"text":   "2024-06-01T10:30:00.5Z",
		"bad":    "yesterday",
	}

	assert.Equal(t, "BIZ-1", rec.String("id"))
	assert.Equal(t, "bytes", rec.String("raw"))
	assert.Equal(t, "", rec.String("float"))
	assert.Equal(t, "", rec.String("missing"))

	assert.Equal(t, 12.5, rec.Float("float"))
	assert.Equal(t, 7.0, rec.Float("int"))
	assert.Zero(t, rec.Float("id"))

	native, ok := rec.Time("native")
	require.True(t, ok)
	assert.Equal(t, time.UTC, native.Location())
	assert.Equal(t, 11, native.Hour())

	text, ok := rec.Time("text")
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, time.Duration(text.Nanosecond()))

	_, ok = rec.Time("bad")
	assert.False(t, ok)
	_, ok = rec.Time("missing")
	assert.False(t, ok)
}

func TestMemoryClient_ScriptsRepliesPerMode(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryClient()
	mem.PushWriteError(ErrConflict)
	mem.PushWriteResult(Result{Records: []Record{{"n": int64(1)}}})
	mem.PushReadResult(Result{Records: []Record{{"n": int64(2)}}})

	_, err := mem.ExecuteWrite(ctx, "W1", map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrConflict)

	res, err := mem.ExecuteWrite(ctx, "W2", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Records[0].Float("n"))

	res, err = mem.ExecuteWrite(ctx, "W3", nil)
	require.NoError(t, err)
	assert.True(t, res.Empty())

	res, err = mem.ExecuteRead(ctx, "R1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Records[0].Float("n"))

	writes := mem.WriteCalls()
	require.Len(t, writes, 3)
	assert.Equal(t, []string{"W1", "W2", "W3"}, []string{writes[0].Query, writes[1].Query, writes[2].Query})
	assert.Equal(t, 1, writes[0].Params["a"])
	assert.Len(t, mem.ReadCalls(), 1)
}

func TestMemoryClient_RecordedParamsAreCopies(t *testing.T) {
	mem := NewMemoryClient()
	params := map[string]any{"id": "BIZ-1"}

	_, err := mem.ExecuteRead(context.Background(), "R", params)
	require.NoError(t, err)
	params["id"] = "BIZ-2"

	assert.Equal(t, "BIZ-1", mem.ReadCalls()[0].Params["id"])
}
