package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

// ParseLevel maps a config string to a LogLevel, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "WARNING":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	case LogLevelFatal:
		return LogLevelFatal
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// shared is the process-wide output every component logger writes through.
// Setup swaps its writers; loggers created earlier pick the change up.
var shared = &dispatcher{
	writers: []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}},
}

var (
	defaultLevel   = LogLevelInfo
	defaultLevelMu sync.RWMutex
)

type dispatcher struct {
	mu      sync.RWMutex
	writers []io.Writer
}

func (d *dispatcher) Write(p []byte) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, w := range d.writers {
		w.Write(p)
	}
	return len(p), nil
}

func (d *dispatcher) set(writers []io.Writer) {
	d.mu.Lock()
	d.writers = writers
	d.mu.Unlock()
}

func (d *dispatcher) add(w io.Writer) {
	d.mu.Lock()
	d.writers = append(d.writers, w)
	d.mu.Unlock()
}

// AddOutput sends the human-readable form of every log line to w.
// The GUI log tab uses this.
func AddOutput(w io.Writer) {
	shared.add(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"})
}

// Sink receives one formatted log line at a time, without the trailing
// newline
type Sink func(line string)

// AddSink feeds every log line to sink. Call it after Setup, which
// replaces the shared outputs.
func AddSink(sink Sink) {
	AddOutput(sinkWriter(sink))
}

type sinkWriter Sink

func (s sinkWriter) Write(p []byte) (int, error) {
	s(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Zerolog returns a raw zerolog logger writing through the shared outputs,
// for packages that cannot depend on this one
func Zerolog(component string) zerolog.Logger {
	return zerolog.New(shared).With().Timestamp().Str("component", component).Logger()
}

// Logger provides structured logging for one component
type Logger struct {
	component string
	mu        sync.Mutex
	minLevel  LogLevel
	levelSet  bool
	extra     []io.Writer
	zl        zerolog.Logger
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	l := &Logger{component: component}
	l.rebuild()
	return l
}

func (l *Logger) rebuild() {
	var out io.Writer = shared
	if len(l.extra) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{shared}, l.extra...)...)
	}
	l.zl = zerolog.New(out).With().Timestamp().Str("component", l.component).Logger()
}

// SetMinLevel sets the minimum log level to output
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	l.levelSet = true
	return l
}

// AddOutput adds a writer that receives this component's lines only
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.extra = append(l.extra, w)
	l.rebuild()
	return l
}

func (l *Logger) level() LogLevel {
	if l.levelSet {
		return l.minLevel
	}
	defaultLevelMu.RLock()
	defer defaultLevelMu.RUnlock()
	return defaultLevel
}

func (l *Logger) log(level LogLevel, message string, err error, context map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level.zerolog() < l.level().zerolog() {
		return
	}

	// WithLevel never exits, even for FATAL
	ev := l.zl.WithLevel(level.zerolog())
	if err != nil {
		ev = ev.Err(err)
	}
	if len(context) > 0 {
		ev = ev.Fields(context)
	}
	ev.Msg(message)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, message, nil, nil)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelDebug, message, nil, context)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, message, nil, nil)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelInfo, message, nil, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, message, nil, nil)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(LogLevelWarn, message, nil, context)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, message, err, nil)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(LogLevelError, message, err, context)
}

// Fatal logs a fatal error message. It does not exit.
func (l *Logger) Fatal(message string, err error) {
	l.log(LogLevelFatal, message, err, nil)
}

// WithContext returns a logger that attaches context to every line
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(LogLevelDebug, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(LogLevelInfo, message, nil, cl.context)
}

// Warn logs a warning message with pre-set context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.log(LogLevelWarn, message, nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(LogLevelError, message, err, cl.context)
}

// Options configures the shared outputs
type Options struct {
	Level      string
	Dir        string // "" disables the file output
	Console    bool
	MaxSizeMB  int
	MaxBackups int
}

// Setup replaces the shared outputs. The returned closer flushes and closes
// the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	defaultLevelMu.Lock()
	defaultLevel = ParseLevel(opts.Level)
	defaultLevelMu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		fw, err := NewFileWriter(opts.Dir, "bot", opts.MaxSizeMB, opts.MaxBackups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
		closer = fw
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	shared.set(writers)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
