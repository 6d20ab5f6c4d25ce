package logging

import (
	"context"
	"log/slog"
)

// CaptureHandler wraps an slog.Handler to record every log entry in a
// Collector under one run id while passing records through to the wrapped
// handler.
type CaptureHandler struct {
	underlying slog.Handler
	collector  *Collector
	runID      string
	attrs      []slog.Attr
	groups     []string
}

// NewCaptureHandler creates a handler that captures records for runID.
func NewCaptureHandler(underlying slog.Handler, collector *Collector, runID string) *CaptureHandler {
	return &CaptureHandler{
		underlying: underlying,
		collector:  collector,
		runID:      runID,
	}
}

// Enabled always returns true so every level is captured; the underlying
// handler still applies its own level filter for output in Handle.
func (h *CaptureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle captures the record and passes it to the underlying handler.
func (h *CaptureHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := Entry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}

	for _, attr := range h.attrs {
		entry.Attributes[attr.Key] = resolveValue(attr.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[a.Key] = resolveValue(a.Value)
		return true
	})

	h.collector.Append(h.runID, entry)

	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a new CaptureHandler, not the underlying handler,
// so capturing survives .With() chains.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &CaptureHandler{
		underlying: h.underlying.WithAttrs(attrs),
		collector:  h.collector,
		runID:      h.runID,
		attrs:      newAttrs,
		groups:     h.groups,
	}
}

// WithGroup must return a new CaptureHandler for the same reason as
// WithAttrs.
func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &CaptureHandler{
		underlying: h.underlying.WithGroup(name),
		collector:  h.collector,
		runID:      h.runID,
		attrs:      h.attrs,
		groups:     newGroups,
	}
}

// resolveValue converts a slog.Value into a JSON-serializable value. Errors
// become their message strings.
func resolveValue(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindAny:
		any := v.Any()
		if err, ok := any.(error); ok {
			return err.Error()
		}
		return any
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, attr := range attrs {
			group[attr.Key] = resolveValue(attr.Value)
		}
		return group
	default:
		return v.Any()
	}
}
