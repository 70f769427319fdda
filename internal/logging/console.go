package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level orders the console line kinds.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Console prints one colorized line per call, tagged with the caller's
// source line:
//
//	INFO:118: navigating url=https://fast.com/
//
// Error lines are always printed. Info and Warn need verbosity 1, Debug
// needs verbosity 2.
type Console struct {
	out       io.Writer
	verbosity int
	fields    []Field
	colors    map[Level]*color.Color
	exit      func(int)
	mu        *sync.Mutex
}

// ConsoleOption customizes a Console.
type ConsoleOption func(*Console)

// WithOutput sets the destination, stdout by default.
func WithOutput(w io.Writer) ConsoleOption {
	return func(c *Console) { c.out = w }
}

// WithColor forces ANSI colors on or off regardless of the terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) {
		for _, col := range c.colors {
			if enabled {
				col.EnableColor()
			} else {
				col.DisableColor()
			}
		}
	}
}

// WithExit replaces os.Exit for Fatal.
func WithExit(fn func(int)) ConsoleOption {
	return func(c *Console) { c.exit = fn }
}

// NewConsole returns a Console for the given verbosity level.
func NewConsole(verbosity int, opts ...ConsoleOption) *Console {
	c := &Console{
		out:       os.Stdout,
		verbosity: verbosity,
		colors: map[Level]*color.Color{
			LevelDebug: color.New(color.FgCyan),
			LevelInfo:  color.New(color.FgBlue, color.Bold),
			LevelWarn:  color.New(color.FgYellow, color.Bold),
			LevelError: color.New(color.FgRed, color.Bold),
		},
		exit: os.Exit,
		mu:   &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verbosity reports the level the console was created with.
func (c *Console) Verbosity() int { return c.verbosity }

func (c *Console) Debug(msg string, fields ...Field) {
	c.log(LevelDebug, msg, fields)
}

func (c *Console) Info(msg string, fields ...Field) {
	c.log(LevelInfo, msg, fields)
}

func (c *Console) Warn(msg string, fields ...Field) {
	c.log(LevelWarn, msg, fields)
}

func (c *Console) Error(msg string, fields ...Field) {
	c.log(LevelError, msg, fields)
}

// Fatal prints an ERROR line and terminates the process with status 1.
func (c *Console) Fatal(msg string, fields ...Field) {
	c.log(LevelError, msg, fields)
	c.exit(1)
}

func (c *Console) With(fields ...Field) Logger {
	child := *c
	child.fields = append(append([]Field(nil), c.fields...), fields...)
	return &child
}

func (c *Console) enabled(level Level) bool {
	switch level {
	case LevelError:
		return true
	case LevelDebug:
		return c.verbosity >= 2
	default:
		return c.verbosity >= 1
	}
}

// log must be called directly from the exported methods; callerLine relies
// on that depth.
func (c *Console) log(level Level, msg string, fields []Field) {
	if !c.enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(level.String())
	b.WriteByte(':')
	b.WriteString(callerLine(2))
	b.WriteString(": ")
	b.WriteString(msg)
	for _, f := range c.fields {
		writeField(&b, f)
	}
	for _, f := range fields {
		writeField(&b, f)
	}

	line := c.colors[level].Sprint(b.String())

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}

func writeField(b *strings.Builder, f Field) {
	b.WriteByte(' ')
	b.WriteString(f.Key)
	b.WriteByte('=')
	v := fmt.Sprint(f.Value)
	if strings.ContainsAny(v, " \t\"=") {
		v = strconv.Quote(v)
	}
	b.WriteString(v)
}

// callerLine returns the source line skip frames above its caller, or "?"
// when the stack cannot be read.
func callerLine(skip int) string {
	_, _, line, ok := runtime.Caller(skip + 1)
	if !ok || line <= 0 {
		return "?"
	}
	return strconv.Itoa(line)
}
