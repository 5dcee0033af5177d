// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的 zerolog 实例，Init 之后可用
var Logger zerolog.Logger

type ctxKey int

const correlationIDKey ctxKey = 0

func init() {
	// 默认输出到 stderr，服务启动时可以通过 Init 重新配置
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init 初始化全局日志实例，attach 服务名
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// WithCorrelationID 把业务侧的 correlationId 写进上下文，之后 Ctx 会自动带上
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationID 取出上下文中的 correlationId，没有则返回空串
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// Ctx 返回一个绑定了追踪信息的 logger。
// trace_id/span_id 来自 OTel 的 SpanContext，correlation_id 来自业务上下文，
// 这样日志就能和 Jaeger 里的链路对上。
func Ctx(ctx context.Context) *zerolog.Logger {
	lctx := Logger.With()

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		lctx = lctx.
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String())
	}
	if cid := CorrelationID(ctx); cid != "" {
		lctx = lctx.Str("correlation_id", cid)
	}

	l := lctx.Logger()
	return &l
}
