// Package logger exposes the process-wide structured logger. Every
// component logs through the same zap instance so output stays parseable
// in one stream.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Get returns the shared zap logger, building it on first use. Production
// config writes JSON to stdout; construction failure is unrecoverable.
func Get() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		l, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		instance = l
	})
	return instance
}
