package log

import (
	"log/slog"
	"os"
)

// NewHandler sets up a new slog.Handler with the service name
// as an attribute
func NewHandler(name string) slog.Handler {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})

	var attrs []slog.Attr
	attrs = append(attrs, slog.Attr{Key: "service", Value: slog.StringValue(name)})
	return handler.WithAttrs(attrs)
}

func New(name string) *slog.Logger {
	return slog.New(NewHandler(name))
}
