package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is replaced by InitLogger at startup. The no-op default keeps
// packages usable from tests without any setup.
var Logger = zap.NewNop()

// InitLogger builds the process logger. Development mode uses zap's console
// encoder, otherwise JSON output at the requested level.
func InitLogger(dev bool, level string) error {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
