package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
)

var DefaultOptions = &Options{
	Level:      slog.LevelDebug,
	TimeFormat: time.DateTime,
	AddSource:  true,
	MsgPrefix:  color.HiWhiteString("| "),
}

type Options struct {
	// Level reports the minimum level to log. If nil, the Handler uses [slog.LevelInfo].
	Level slog.Leveler

	TimeFormat string

	// AddSource prints file:line of the log call.
	AddSource bool

	// MsgPrefix is written before every message, default: white colored "| ".
	MsgPrefix string

	NoColor bool
}

// NewOptions derives options from DefaultOptions for the given level name.
func NewOptions(level string, noColor bool) (*Options, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := *DefaultOptions
	opts.Level = lvl
	opts.NoColor = noColor
	return &opts, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return lvl, nil
}
