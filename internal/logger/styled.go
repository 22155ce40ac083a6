package logger

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/freytube/freytube/theme"
)

// StyledLogger wraps slog.Logger with theme-aware formatting for instance URLs
type StyledLogger struct {
	logger *slog.Logger
	Theme  *theme.Theme
}

func NewStyledLogger(logger *slog.Logger, theme *theme.Theme) *StyledLogger {
	return &StyledLogger{
		logger: logger,
		Theme:  theme,
	}
}

// NewDiscard returns a logger that drops everything, handy in tests
func NewDiscard() *StyledLogger {
	return NewStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), theme.Default())
}

func NewWithTheme(cfg *Config) (*slog.Logger, *StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return logger, NewStyledLogger(logger, theme.GetTheme(cfg.Theme)), cleanup, nil
}

func (sl *StyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *StyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *StyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *StyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *StyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Counts}.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

func (sl *StyledLogger) InfoWithEndpoint(msg string, endpoint string, args ...any) {
	sl.logger.Info(sl.withEndpoint(msg, endpoint), args...)
}

func (sl *StyledLogger) WarnWithEndpoint(msg string, endpoint string, args ...any) {
	sl.logger.Warn(sl.withEndpoint(msg, endpoint), args...)
}

func (sl *StyledLogger) ErrorWithEndpoint(msg string, endpoint string, args ...any) {
	sl.logger.Error(sl.withEndpoint(msg, endpoint), args...)
}

// InfoWithProvider prefixes the message with the provider name, e.g. "[piped] Rotated to"
func (sl *StyledLogger) InfoWithProvider(provider string, msg string, endpoint string, args ...any) {
	sl.logger.Info(sl.withProvider(provider, msg, endpoint), args...)
}

func (sl *StyledLogger) WarnWithProvider(provider string, msg string, endpoint string, args ...any) {
	sl.logger.Warn(sl.withProvider(provider, msg, endpoint), args...)
}

func (sl *StyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *StyledLogger) With(args ...any) *StyledLogger {
	return &StyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}

func (sl *StyledLogger) withEndpoint(msg, endpoint string) string {
	return fmt.Sprintf("%s %s", msg, pterm.Style{sl.Theme.Endpoint}.Sprint(endpoint))
}

func (sl *StyledLogger) withProvider(provider, msg, endpoint string) string {
	return fmt.Sprintf("%s %s %s",
		pterm.Style{sl.Theme.Provider}.Sprint("[", provider, "]"),
		msg,
		pterm.Style{sl.Theme.Endpoint}.Sprint(endpoint))
}
