package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config is the environment-driven logger configuration.
type Config struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Format  Format `env:"LOG_FORMAT" envDefault:"json"`
	Env     string `env:"APP_ENV" envDefault:"production"`
	Service string `env:"APP_NAME" envDefault:"tenancy"`
}

// Option configures logger creation.
type Option func(*config)

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat panics on unknown formats so a misconfigured binary fails at startup.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add request-scoped attributes,
// such as tenant_id and request_id, at log time.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies per-environment defaults: text and debug for development,
// JSON and info elsewhere.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		switch strings.ToLower(env) {
		case "development", "dev", "local":
			c.level = slog.LevelDebug
			c.format = FormatText
			env = "development"
		case "staging", "stage":
			c.level = slog.LevelInfo
			c.format = FormatJSON
			env = "staging"
		default:
			c.level = slog.LevelInfo
			c.format = FormatJSON
			env = "production"
		}
		c.attrs = append(c.attrs, slog.String("env", env))
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
	}
}

// FromConfig builds options from cfg. Explicit LOG_LEVEL and LOG_FORMAT win over the environment defaults.
func FromConfig(cfg Config) []Option {
	opts := []Option{WithEnvironment(cfg.Env, cfg.Service)}
	if cfg.Format != "" {
		opts = append(opts, WithFormat(cfg.Format))
	}
	if cfg.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(cfg.Level)); err == nil {
			opts = append(opts, WithLevel(l))
		}
	}
	return opts
}

// New creates a slog.Logger whose handler pulls attributes from the record's context.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}
	return slog.New(NewContextHandler(handler, cfg.extractors...))
}
