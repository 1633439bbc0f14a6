package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID tags every record logged with ctx by the Telegram update id.
func ContextWithRequestID(ctx context.Context, requestID int) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) (int, bool) {
	requestID, ok := ctx.Value(requestIDKey).(int)
	return requestID, ok
}

func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
