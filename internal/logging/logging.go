package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mimi-cli/internal/config"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds a logger from cfg. The returned closer releases a log file when
// one was opened; it is never nil.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out io.Writer
	var closer io.Closer = nopCloser{}
	switch strings.TrimSpace(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		path := cfg.Output
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file %q: %w", path, err)
		}
		out, closer = f, f
	}

	return build(out, cfg.Format, level), closer, nil
}

// ForTUI is like New but never writes to the terminal: stderr/stdout outputs are
// replaced by a file inside dir.
func ForTUI(cfg config.LogConfig, dir string) (zerolog.Logger, io.Closer, error) {
	switch strings.TrimSpace(cfg.Output) {
	case "", "stderr", "stdout":
		if strings.TrimSpace(dir) == "" {
			return zerolog.Nop(), nopCloser{}, nil
		}
		cfg.Output = filepath.Join(dir, "tui.log")
	}
	return New(cfg)
}

func build(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
