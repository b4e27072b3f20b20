package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansShareTrace(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "")
	require.Len(t, root.TraceID, 32)

	childCtx, child := StartChildSpan(ctx, "segment")
	child.SetAttr("segment", "seg_1")
	child.RecordError(errors.New("bad postings"))
	child.End()
	root.End()

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Same(t, child, SpanFromContext(childCtx))
	require.Len(t, root.Children, 1)
	assert.EqualError(t, root.Children[0].Err, "bad postings")
}

func TestStartChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.NotEmpty(t, span.TraceID)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLogWritesTree(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "search", "abc")
	_, child := StartChildSpan(ctx, "segment")
	child.End()
	root.End()
	root.Log(logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=search")
	assert.Contains(t, lines[1], "depth=1")
	assert.Contains(t, lines[1], "trace_id=abc")
}
