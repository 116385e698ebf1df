package logger

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(RequestIDKey, "from-gin")
	assert.Equal(t, "from-gin", RequestID(c))
}

func TestWith_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	With(WithRequestID(context.Background(), "req-1"), log).Info("hello")
	With(context.Background(), log).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestNew_TeesToCloudWatchWriter(t *testing.T) {
	sink := &syncBuffer{}
	log, err := New("production", sink)
	require.NoError(t, err)

	log.Info("order created", zap.String("order_number", "ORD-1"))
	_ = log.Sync()

	out := sink.String()
	assert.Contains(t, out, `"msg":"order created"`)
	assert.Contains(t, out, `"order_number":"ORD-1"`)
	assert.Contains(t, out, `"level":"info"`)
}
