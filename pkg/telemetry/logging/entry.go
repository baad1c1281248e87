package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Level is the severity of a log store entry.
type Level string

const (
	// LevelInfo records normal operation.
	LevelInfo Level = "info"
	// LevelWarning records a recoverable failure.
	LevelWarning Level = "warning"
	// LevelError records a failure that needs an administrator. Error entries
	// dispatch an alert.
	LevelError Level = "error"
)

// TimestampLayout is the layout of the leading timestamp on every line.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is a single log store entry before formatting.
type Entry struct {
	Time    time.Time
	Level   Level
	Actor   string
	Message string
	Context map[string]any
}

// ParseLevel parses a level name. It accepts the slog spellings as well.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// slogLevel maps a store level onto the slog scale.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelFromSlog maps a slog level onto the three store levels.
func levelFromSlog(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// FormatEntry renders an entry as one store line, without the trailing
// newline:
//
//	[2024-05-01 10:00:00] [error] | User: admin | message | Context: {"api":"OpenAI"}
//
// The context segment is omitted when the context is empty. Context keys are
// emitted in sorted order.
func FormatEntry(e Entry) string {
	var b strings.Builder

	b.WriteString("[")
	b.WriteString(e.Time.Format(TimestampLayout))
	b.WriteString("] [")
	b.WriteString(string(e.Level))
	b.WriteString("] | ")

	if e.Actor != "" {
		b.WriteString("User: ")
		b.WriteString(singleLine(e.Actor))
	} else {
		b.WriteString("No user")
	}

	b.WriteString(" | ")
	b.WriteString(singleLine(e.Message))

	if len(e.Context) > 0 {
		b.WriteString(" | Context: ")
		b.WriteString(encodeContext(e.Context))
	}

	return b.String()
}

// encodeContext marshals the context map as compact JSON. Values that cannot
// be marshalled are replaced by their fmt representation.
func encodeContext(ctx map[string]any) string {
	if out, err := marshalCompact(ctx); err == nil {
		return out
	}

	fallback := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if _, err := json.Marshal(v); err != nil {
			fallback[k] = fmt.Sprintf("%v", v)
			continue
		}
		fallback[k] = v
	}

	out, err := marshalCompact(fallback)
	if err != nil {
		return fmt.Sprintf(`{"context_error":%q}`, err.Error())
	}
	return out
}

func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// singleLine keeps an entry on one line.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
