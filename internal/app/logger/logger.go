package logger

import (
	"log"

	"go.uber.org/zap"
)

// Log is the package-global logger. It is a no-op until InitLogger runs.
var Log = zap.NewNop()

func InitLogger(level string) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		log.Fatalf("parse log level %q: %v", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	Log = zl
}
