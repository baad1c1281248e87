package logging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datolab/autoseo/pkg/telemetry/alert"
)

// Handler is a slog.Handler that writes entries to a FileStore in the line
// format of FormatEntry. Records at error level are also handed to the alert
// sink; a failed delivery is written back as a warning and never alerts.
type Handler struct {
	store    *FileStore
	sink     alert.Sink
	redactor *Redactor
	metrics  Recorder
	console  slog.Handler
	siteName string
	now      func() time.Time

	attrs  []groupedAttr
	groups []string
}

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

// Recorder receives log store events for metrics.
type Recorder interface {
	RecordLogEntry(level string)
	RecordLogRotation()
	RecordAlert(delivered bool)
}

// Enabled reports whether the handler writes records at level. Anything below
// info is dropped from the store but may still reach the console mirror.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelInfo {
		return true
	}
	return h.console != nil && h.console.Enabled(ctx, level)
}

// Handle formats and appends the record.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.console != nil && h.console.Enabled(ctx, r.Level) {
		_ = h.console.Handle(ctx, r.Clone())
	}
	if r.Level < slog.LevelInfo {
		return nil
	}

	fields := extractContextFields(ctx)
	for _, ga := range h.attrs {
		addAttr(fields, ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.groups, a)
		return true
	})

	entry := Entry{
		Time:    h.now(),
		Level:   levelFromSlog(r.Level),
		Actor:   GetUser(ctx),
		Message: h.redactor.RedactString(r.Message),
		Context: h.redactor.RedactFields(fields),
	}

	if err := h.write(entry); err != nil {
		return err
	}

	if entry.Level == LevelError {
		h.dispatch(ctx, entry)
	}
	return nil
}

// write appends one entry to the store.
func (h *Handler) write(entry Entry) error {
	rotated, err := h.store.Append(FormatEntry(entry))
	if rotated && h.metrics != nil {
		h.metrics.RecordLogRotation()
	}
	if err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordLogEntry(string(entry.Level))
	}
	return nil
}

// dispatch delivers an alert for an error entry. It never returns an error.
func (h *Handler) dispatch(ctx context.Context, entry Entry) {
	if h.sink == nil {
		return
	}

	a := alert.Alert{
		Subject: fmt.Sprintf("[%s] Datolab Auto SEO Critical Error", h.siteName),
		Body:    FormatEntry(entry) + "\n\nPlease check the plugin logs for more details.",
		Level:   string(entry.Level),
		Message: entry.Message,
		Context: entry.Context,
		Time:    entry.Time,
	}

	err := h.sink.Send(ctx, a)
	if h.metrics != nil {
		h.metrics.RecordAlert(err == nil)
	}
	if err == nil {
		return
	}

	// Written directly at warning level so a failing sink cannot recurse.
	_ = h.write(Entry{
		Time:    h.now(),
		Level:   LevelWarning,
		Actor:   entry.Actor,
		Message: "Failed to send error notification",
		Context: map[string]any{"error": h.redactor.RedactString(err.Error())},
	})
}

// WithAttrs returns a handler that adds attrs to every entry.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	if h.console != nil {
		h2.console = h.console.WithAttrs(attrs)
	}
	return h2
}

// WithGroup returns a handler that nests later attributes under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(append([]string(nil), h.groups...), name)
	if h.console != nil {
		h2.console = h.console.WithGroup(name)
	}
	return h2
}

func (h *Handler) clone() *Handler {
	h2 := *h
	h2.attrs = append([]groupedAttr(nil), h.attrs...)
	h2.groups = append([]string(nil), h.groups...)
	return &h2
}

// addAttr stores a under the group path in fields.
func addAttr(fields map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	target := fields
	for _, g := range groups {
		next, ok := target[g].(map[string]any)
		if !ok {
			next = make(map[string]any)
			target[g] = next
		}
		target = next
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		if a.Key == "" {
			for _, ga := range attrs {
				addAttr(target, nil, ga)
			}
			return
		}
		group, ok := target[a.Key].(map[string]any)
		if !ok {
			group = make(map[string]any)
			target[a.Key] = group
		}
		for _, ga := range attrs {
			addAttr(group, nil, ga)
		}
		return
	}

	target[a.Key] = attrValue(a.Value)
}

// attrValue converts a resolved slog value to something json can encode.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return x
		}
	default:
		return v.Any()
	}
}
