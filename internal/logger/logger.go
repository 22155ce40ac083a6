package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/freytube/freytube/internal/util"
	"github.com/freytube/freytube/theme"
)

// Config drives both sinks. Format and Output apply to the console only; the
// rotating file is always JSON.
type Config struct {
	Writer     io.Writer // overrides Output when set
	Level      string
	Format     string
	Output     string
	LogDir     string
	Theme      string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	FileOutput bool
}

const (
	DefaultLogOutputName = "freytube.log"
	fileTimeLayout       = "2006-01-02 15:04:05"

	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"

	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

var ErrUnknownFormat = errors.New("unknown log format")

func New(cfg *Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)

	console, err := consoleHandler(cfg, level)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.FileOutput {
		return slog.New(console), func() {}, nil
	}

	file, closeFile, err := rotatingFileHandler(cfg, level)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(teeHandler{console, file}), closeFile, nil
}

func consoleWriter(cfg *Config) io.Writer {
	if cfg.Writer != nil {
		return cfg.Writer
	}
	if strings.EqualFold(cfg.Output, OutputStdout) {
		return os.Stdout
	}
	return os.Stderr
}

// consoleHandler picks pterm for colour terminals under the auto format and
// plain slog handlers for everything else
func consoleHandler(cfg *Config, level slog.Level) (slog.Handler, error) {
	w := consoleWriter(cfg)
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: plainAttr}

	switch strings.ToLower(cfg.Format) {
	case "", FormatAuto:
		if cfg.Writer == nil && util.ShouldUseColors() {
			return ptermHandler(w, level, theme.GetTheme(cfg.Theme)), nil
		}
		return slog.NewJSONHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatText:
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}
}

func ptermHandler(w io.Writer, level slog.Level, appTheme *theme.Theme) slog.Handler {
	plogger := pterm.DefaultLogger.
		WithLevel(ptermLevel(level)).
		WithWriter(w).
		WithFormatter(pterm.LogFormatterColorful).
		WithKeyStyles(map[string]pterm.Style{
			"level": *appTheme.Info,
			"msg":   *appTheme.Info,
			"time":  *appTheme.Muted,
		})
	return pterm.NewSlogHandler(plogger)
}

func rotatingFileHandler(cfg *Config, level slog.Level) (slog.Handler, func(), error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, DefaultLogOutputName),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level, ReplaceAttr: plainAttr})
	return handler, func() { _ = rotator.Close() }, nil
}

// plainAttr keeps machine-readable output free of styling: the timestamp is
// renamed and formatted, styled strings are stripped and opaque values are
// rendered with %v.
func plainAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String("timestamp", a.Value.Time().Format(fileTimeLayout))
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); strings.IndexByte(s, '\x1b') >= 0 {
			return slog.String(a.Key, stripAnsiCodes(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, err.Error())
		}
		return slog.String(a.Key, fmt.Sprintf("%v", a.Value.Any()))
	}
	return a
}

// teeHandler fans a record out to every handler that accepts its level
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ptermLevel maps debug to trace so pterm prints every debug record
func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelTrace
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
