package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// CLIErrorAdapter maps errors to exit codes and user-facing messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	de, ok := As(err)
	if !ok {
		return 1
	}
	switch de.Category {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryFilter, CategoryHighlight:
		return 9
	case CategoryRender, CategoryFileSystem, CategoryIndex:
		return 11
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	de, ok := As(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	switch de.Category {
	case CategoryConfig, CategoryValidation:
		return de.Message
	default:
		return fmt.Sprintf("%s: %s", de.Category, de.Message)
	}
}

// Report logs err and writes the formatted message to w. It returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	a.logError(err)
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) logError(err error) {
	de, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(de.Category))}
	for k, v := range de.Context {
		if k == "snippet" && !a.verbose {
			continue
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	level := slog.LevelError
	if de.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, de.Message, attrs...)
}
