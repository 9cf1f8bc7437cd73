// Package log wraps zap behind the small logging interface the tooling
// packages share.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface the keystore, archive and CLI depend on. The
// core scheme package never logs.
type Logger interface {
	Info(args ...interface{})
	Debug(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})
	With(args ...interface{}) Logger
	Named(s string) Logger
}

// Levels accepted by NewLogger.
const (
	LogDebug int = iota
	LogInfo
	LogWarn
	LogError
)

type logger struct {
	*zap.SugaredLogger
}

// NewLogger builds a console logger at the given level.
func NewLogger(level int) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return &logger{l.Sugar()}
}

// DefaultLogger logs at info level.
func DefaultLogger() Logger {
	return NewLogger(LogInfo)
}

func zapLevel(level int) zapcore.Level {
	switch level {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *logger) With(args ...interface{}) Logger {
	return &logger{l.SugaredLogger.With(args...)}
}

func (l *logger) Named(s string) Logger {
	return &logger{l.SugaredLogger.Named(s)}
}
