// Package log wraps log/slog so every record carries the component that
// emitted it.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger whose records are stamped with a component
// attribute. The bare handler is kept so WithComponent can rebuild from
// it instead of stacking component attrs.
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: "app",
	}
}

// New creates a logger with the given configuration.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	component := config.Component
	if component == "" {
		component = "app"
	}
	return fromHandler(handler, component)
}

func fromHandler(handler slog.Handler, component string) *Logger {
	return &Logger{
		Logger:    slog.New(handler).With(slog.String(FieldComponent, component)),
		handler:   handler,
		component: component,
	}
}

// With returns a logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		handler:   l.handler,
		component: l.component,
	}
}

// WithComponent returns a logger scoped to a component name. The previous
// component attribute is replaced, not stacked.
func (l *Logger) WithComponent(component string) *Logger {
	return fromHandler(l.handler, component)
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process-wide default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
