package logger

import (
	"context"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the key used to store request ID in the gin context
const RequestIDKey = "request_id"

// New builds the process logger for env. When cloudWatchWriter is non-nil the
// console core is tee'd with a JSON core that ships every entry to it.
func New(env string, cloudWatchWriter io.Writer) (*zap.Logger, error) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cloudWatchWriter == nil {
		return config.Build()
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(config.EncoderConfig), zapcore.AddSync(os.Stdout), level)

	jsonConfig := config.EncoderConfig
	jsonConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cwCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(cloudWatchWriter), level)

	return zap.New(zapcore.NewTee(consoleCore, cwCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// With returns log annotated with the request ID carried by ctx, if any.
func With(ctx context.Context, log *zap.Logger) *zap.Logger {
	if rid := RequestID(ctx); rid != "" {
		return log.With(zap.String("request_id", rid))
	}
	return log
}

// RequestID extracts the request ID from a gin context or a context built by WithRequestID.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.GetString(RequestIDKey)
	}
	if rid, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return rid
	}
	return ""
}

type requestIDCtxKey struct{}

// WithRequestID returns a context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, requestID)
}
