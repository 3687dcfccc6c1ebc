// Package logging builds the zap logger shared by shopkit commands.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w. Debug enables debug-level
// entries and caller annotations.
func New(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	if !debug {
		encCfg.CallerKey = ""
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)

	opts := []zap.Option{}
	if debug {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...).Named("shopkit")
}
