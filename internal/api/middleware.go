package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ledd/internal/logging"
)

// quietOperations are polled by supervisors and logged at debug level.
var quietOperations = map[string]bool{
	"health-check": true,
	"get-version":  true,
}

// HTTPLoggingMiddleware logs each request at a level chosen from its
// method and status.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	logAttrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", ctx.URL().Path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if op := ctx.Operation(); op != nil {
		logAttrs = append(logAttrs, slog.String("operation", op.OperationID))
	}
	if query := ctx.URL().RawQuery; query != "" {
		logAttrs = append(logAttrs, slog.String("query", query))
	}
	if userAgent := ctx.Header("User-Agent"); userAgent != "" {
		logAttrs = append(logAttrs, slog.String("user_agent", userAgent))
	}

	next(ctx)

	status := ctx.Status()
	logAttrs = append(logAttrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	logger.LogAttrs(ctx.Context(), requestLevel(ctx.Operation(), method, status), "HTTP request completed", logAttrs...)
}

func requestLevel(op *huma.Operation, method string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case method == http.MethodOptions:
		return slog.LevelDebug
	case op != nil && quietOperations[op.OperationID]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
