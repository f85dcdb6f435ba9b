// Package logger is the process-wide structured logger. Libraries under pkg/
// never log; commands and pipelines call the package functions here.
package logger

import (
	"fmt"
	"sync"
)

// Instance is a logging backend
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var (
	mu        sync.RWMutex
	instances []Instance
)

// Init installs the logging backends. Calls made before Init are dropped.
func Init(backends ...Instance) {
	mu.Lock()
	defer mu.Unlock()
	instances = backends
}

func each(fn func(Instance)) {
	mu.RLock()
	defer mu.RUnlock()
	for _, inst := range instances {
		fn(inst)
	}
}

func Debug(message string, keyvals ...any) {
	each(func(i Instance) { i.Debug(message, keyvals...) })
}

func Info(message string, keyvals ...any) {
	each(func(i Instance) { i.Info(message, keyvals...) })
}

func Warn(message string, keyvals ...any) {
	each(func(i Instance) { i.Warn(message, keyvals...) })
}

func Error(message string, keyvals ...any) {
	each(func(i Instance) { i.Error(message, keyvals...) })
}

// Fatal logs at FATAL level; console backends terminate the program.
func Fatal(message string, keyvals ...any) {
	each(func(i Instance) { i.Fatal(message, keyvals...) })
}

// Printf-style helpers, used where a library expects a printf logger

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }
