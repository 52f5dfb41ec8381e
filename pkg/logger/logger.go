package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup replaces the global logger. Local runs get colored console output at
// debug level, deployed runs JSON lines at info level. Every line carries
// the service name.
func Setup(isLocalDev bool, service string) {
	var (
		out   io.Writer = os.Stdout
		level           = zerolog.InfoLevel
	)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if isLocalDev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(out).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	log.Logger = ctx.Logger()

	// log.Ctx falls back to the global logger when a context carries none.
	zerolog.DefaultContextLogger = &log.Logger
}

// EnrichContextWithLogger stores in ctx a logger stamped with the ids of the
// current span. Contexts without a recording span are returned as is.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !span.IsRecording() || !sc.HasTraceID() {
		return ctx
	}

	l := log.Logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return l.WithContext(ctx)
}
