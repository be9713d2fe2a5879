package joblog

import (
	"context"
	"errors"
	"log/slog"

	log "github.com/sirupsen/logrus"
)

// LogrusHandler is a slog.Handler that forwards records to logrus, so run
// history messages land in the same log as everything else.
type LogrusHandler struct {
	logger *log.Logger
	attrs  []slog.Attr
	group  string
}

// NewLogrusHandler returns a handler writing to logger, or to the standard
// logrus logger when nil.
func NewLogrusHandler(logger *log.Logger) *LogrusHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogrusHandler{logger: logger}
}

func (h *LogrusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.IsLevelEnabled(logrusLevel(level))
}

func (h *LogrusHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make(log.Fields, len(h.attrs)+record.NumAttrs()+2)
	for _, a := range h.attrs {
		fields[h.key(a.Key)] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		fields[h.key(a.Key)] = a.Value.Any()
		return true
	})
	if id, ok := RunIDFromCtx(ctx); ok {
		fields["run_id"] = id
	}
	if id, ok := StepIDFromCtx(ctx); ok {
		fields["step_id"] = id
	}
	h.logger.WithFields(fields).WithTime(record.Time).Log(logrusLevel(record.Level), record.Message)
	return nil
}

func (h *LogrusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *LogrusHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

func (h *LogrusHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func logrusLevel(level slog.Level) log.Level {
	switch {
	case level >= slog.LevelError:
		return log.ErrorLevel
	case level >= slog.LevelWarn:
		return log.WarnLevel
	case level >= slog.LevelInfo:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// FanoutHandler sends every record to all of its handlers.
type FanoutHandler struct {
	handlers []slog.Handler
}

func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return NewFanoutHandler(handlers...)
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return NewFanoutHandler(handlers...)
}
