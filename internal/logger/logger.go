// Package logger provides the module logger shared by the structuring
// packages.
package logger

import (
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Logger encapsulates a Logger and module which it belongs to.
// Use this through SetLogger() of detectors and the engine.
type Logger struct {
	*zap.SugaredLogger
	module string
}

// LogSetter is implemented by the engine and the detectors it drives.
type LogSetter interface {
	SetLogger(*Logger)
}

// Module returns (stylised) module name.
func (l *Logger) Module() string {
	return l.module
}

// Named returns a copy of l for module name, styled for terminal output.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger, module: color.GreenString(name)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Wrap returns a Logger for an existing zap logger.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{SugaredLogger: l.Sugar()}
}
