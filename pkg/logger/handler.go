// Package logger provides a colourised slog handler for terminal output.
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	faint   = color.New(color.Faint)
	magenta = color.New(color.FgMagenta)
	cyan    = color.New(color.FgCyan)
	red     = color.New(color.FgRed)

	levelBadges = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.BgCyan, color.FgHiWhite),
		slog.LevelInfo:  color.New(color.BgGreen, color.FgHiWhite),
		slog.LevelWarn:  color.New(color.BgYellow, color.FgHiWhite),
		slog.LevelError: color.New(color.BgRed, color.FgHiWhite),
	}
)

type Handler struct {
	groups []string
	attrs  []slog.Attr

	opts Options

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler creates a new Handler with the specified options. If opts is nil, uses [DefaultOptions].
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts == nil {
		h.opts = *DefaultOptions
	} else {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *Handler) clone() *Handler {
	return &Handler{
		groups: h.groups,
		attrs:  h.attrs,
		opts:   h.opts,
		mu:     h.mu,
		out:    h.out,
	}
}

// Enabled implements slog.Handler.Enabled .
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.Handle .
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	bf := bufPool.Get().(*bytes.Buffer)
	bf.Reset()
	defer bufPool.Put(bf)

	if !r.Time.IsZero() {
		bf.WriteString(faint.Sprint(r.Time.Format(h.opts.TimeFormat)))
		bf.WriteByte(' ')
	}

	if requestID, ok := RequestIDFromContext(ctx); ok {
		bf.WriteString(magenta.Sprintf("%d ", requestID))
	}

	bf.WriteString(levelBadge(r.Level))
	bf.WriteByte(' ')

	if h.opts.AddSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(bf, "%s:%d ", filepath.Base(f.File), f.Line)
	}

	bf.WriteString(h.opts.MsgPrefix)
	bf.WriteString(r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	writeAttr := func(a slog.Attr) bool {
		key := prefix + a.Key
		c := cyan
		if strings.Contains(a.Key, "err") {
			c = red
		}
		bf.WriteByte(' ')
		bf.WriteString(c.Sprintf("%s=", key))
		bf.WriteString(a.Value.String())
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)

	bf.WriteByte('\n')

	if h.opts.NoColor {
		cleaned := ansi.ReplaceAll(bf.Bytes(), nil)
		bf.Reset()
		bf.Write(cleaned)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(bf.Bytes())
	return err
}

// WithGroup implements slog.Handler.WithGroup .
func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(append([]string{}, h.groups...), name)
	return h2
}

// WithAttrs implements slog.Handler.WithAttrs .
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return h2
}

func levelBadge(level slog.Level) string {
	label := fmt.Sprintf("%-5s", level.String())
	if c, ok := levelBadges[level]; ok {
		return c.Sprint(label)
	}
	return label
}

var bufPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// ansi matches ANSI colour escape sequences.
var ansi = regexp.MustCompile("[\u001B\u009B][[\\]()#;?]*(?:(?:(?:[a-zA-Z\\d]*(?:;[a-zA-Z\\d]*)*)?\u0007)|(?:(?:\\d{1,4}(?:;\\d{0,4})*)?[\\dA-PRZcf-ntqry=><~]))")
