package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// AccessLog logs one line per request. Server errors are logged at warn level.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		status := ctx.Status()
		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.URL().Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}

		if meta, ok := RequestMetaFromContext(ctx.Context()); ok {
			fields = append(fields,
				zap.String("request_id", meta.RequestID),
				zap.String("client_ip", meta.ClientIP),
			)
		}

		if status >= 500 {
			logger.Warn("request failed", fields...)

			return
		}

		logger.Info("request", fields...)
	}
}
