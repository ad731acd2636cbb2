// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// Form sessions, submits, and draft writes are logged as JSON, one file
// per day under `<root>/<dir>/YYYY-MM-DD.log`.  Lumberjack rotates, keeps,
// and compresses the files.  In a TTY (or with log.console) the same events
// are teed to stdout in console format.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Root: cfg.Paths.Root, Level: cfg.Log.Level})
//	log.Infow("form session opened", "session", sid)
//
// Notes
// -----
// • Every entry carries `service=impact`.
// • An empty or unknown level means info.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure New.  Zero sizes fall back to the defaults below.
type Options struct {
	Root       string // log directory is Root/Dir
	Dir        string // default "logs"
	Level      string // debug, info, warn, error
	Console    bool   // tee to stdout
	MaxSizeMB  int    // default 50
	MaxBackups int    // default 7
	MaxAgeDays int    // default 14
}

func (o *Options) applyDefaults() {
	if o.Dir == "" {
		o.Dir = "logs"
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 14
	}
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// New builds the logger and installs it with zap.ReplaceGlobals, so zap.S()
// returns it from then on.
func New(o Options) (*zap.SugaredLogger, error) {
	o.applyDefaults()
	lvl := ParseLevel(o.Level)

	dir := o.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(o.Root, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName(time.Now())),
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   true,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), lvl),
	}
	if o.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stdout),
			lvl,
		))
	}

	z := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(file)),
		zap.Fields(zap.String("service", "impact")),
	)
	zap.ReplaceGlobals(z)

	s := z.Sugar()
	s.Infow("logger online", "dir", dir, "console", o.Console, "level", lvl.String())
	return s, nil
}

// FileName is the log file for day t.
func FileName(t time.Time) string { return t.Format("2006-01-02") + ".log" }

// ParseLevel maps "debug", "info", "warn", or "error" to a zap level.
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zap.InfoLevel
	}
	return lvl
}
