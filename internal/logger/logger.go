// Package logger holds the process-wide zap logger. Components log through
// Named so every record carries its origin.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger for env:
//
//	production  JSON at info level
//	test        discards everything
//	otherwise   console at debug level
//
// Only the first call has an effect.
func Init(env string) {
	once.Do(func() {
		sugar = build(env).Sugar()
	})
}

func build(env string) *zap.Logger {
	var (
		base *zap.Logger
		err  error
	)
	switch env {
	case "production":
		cfg := zap.NewProductionConfig()
		cfg.InitialFields = map[string]interface{}{"service": "safe"}
		base, err = cfg.Build()
	case "test":
		return zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return base
}

// Get returns the global logger, falling back to the development logger
// when Init was never called.
func Get() *zap.SugaredLogger {
	Init("development")
	return sugar
}

// Named returns a child logger for component.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes buffered entries before exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
