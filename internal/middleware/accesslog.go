package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// AccessLog logs every handled operation at debug level.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		u := ctx.URL()
		logger.Debug("got incoming HTTP request",
			zap.String("method", ctx.Method()),
			zap.String("uri", u.RequestURI()),
			zap.String("operation", ctx.Operation().OperationID),
			zap.Int("status", ctx.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
