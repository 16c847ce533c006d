package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TeeOption names one extra destination a Logger should also write to,
// optionally restricted to a subset of levels.
type TeeOption struct {
	Out io.Writer
	LevelEnablerFunc
}

// LevelEnablerFunc decides whether a given level should be written to a
// tee destination.
type LevelEnablerFunc func(Level) bool

func newTeeCores(tees []TeeOption, cfg zapcore.EncoderConfig) []zapcore.Core {
	cores := make([]zapcore.Core, 0, len(tees))
	for _, tee := range tees {
		var core zapcore.Core
		if tee.LevelEnablerFunc == nil {
			core = zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(tee.Out), zap.NewAtomicLevelAt(zapcore.Level(InfoLevel)))
		} else {
			enabler := tee.LevelEnablerFunc
			core = zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(tee.Out), zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return enabler(Level(level))
			}))
		}
		cores = append(cores, core)
	}
	return cores
}
