// Package log wraps go.uber.org/zap with gopkg.in/natefinch/lumberjack.v2
// file rotation. Every pooler component takes a *zap.Logger at
// construction and logs structured fields, never fmt.Printf.
package log

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors zapcore.Level so callers need not import zap directly to
// configure a Logger.
type Level = int8

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	WarnLevel  = Level(zapcore.WarnLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// Options configures a Logger's outputs and rotation policy.
type Options struct {
	Level Level

	// Console, when true, also writes JSON-encoded entries to stdout —
	// used in development and by cmd/pgpool when no Filename is given.
	Console bool

	// Filename, if non-empty, is the rotated log file lumberjack writes
	// to. Empty disables file output.
	Filename   string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool

	Tees []TeeOption
}

// New builds a *zap.Logger from the given Options, tee'ing to a rotated
// file, stdout, or any extra TeeOption destinations as configured.
func New(opt Options) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}

	al := zap.NewAtomicLevelAt(zapcore.Level(opt.Level))
	cores := newTeeCores(opt.Tees, cfg)

	if opt.Filename != "" {
		syncer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSizeMB,
			MaxAge:     opt.MaxAgeDays,
			MaxBackups: opt.MaxBackups,
			Compress:   opt.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), syncer, al))
	}

	if opt.Console || opt.Filename == "" {
		syncer := zapcore.AddSync(os.Stdout)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), syncer, al))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Nop returns a Logger that discards everything, for tests that need a
// *zap.Logger but don't care about its output.
func Nop() *zap.Logger { return zap.NewNop() }
