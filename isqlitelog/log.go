// Package isqlitelog wires log/slog to a colorized terminal handler:
// New turns tint's color off when the output isn't a TTY, so piped logs
// stay machine-readable.
package isqlitelog

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New builds a *slog.Logger that writes to w at the given level. Pass
// os.Stderr and slog.LevelInfo for typical CLI use.
func New(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

// Default returns a logger at LevelInfo writing to os.Stderr, used when
// a Database is opened without an explicit WithLogger option.
func Default() *slog.Logger {
	return New(os.Stderr, slog.LevelInfo)
}
