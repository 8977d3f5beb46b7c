// Package log provides the structured logger used by the scheduler
// (the VM backends do not log): a package level zap.SugaredLogger built
// once, exposed through a small Logger interface so call sites don't
// depend on zap directly.
package log

import (
	"go.uber.org/zap"
)

var (
	config zap.Config
	root   *zap.Logger
	logger *zap.SugaredLogger
)

func init() {
	var err error
	config = zap.NewProductionConfig()
	config.EncoderConfig = zap.NewProductionEncoderConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.Sampling = nil
	root, err = config.Build()
	if err != nil {
		panic(err)
	}
	logger = root.Sugar()
}

// Logger is the structured logging surface used throughout the engine.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
}

// New returns a logger scoped with the given structured context, e.g.
// log.New("component", "scheduler", "vm", id).
func New(keysAndValues ...interface{}) Logger {
	return logger.With(keysAndValues...)
}

// SetDebug sets the global level to debug, which makes the scheduler's
// park/wake messages visible.
func SetDebug() { config.Level.SetLevel(zap.DebugLevel) }

// SetWarn sets the global level to warn. The logger built in init
// starts at zap's production level, info.
func SetWarn() { config.Level.SetLevel(zap.WarnLevel) }
