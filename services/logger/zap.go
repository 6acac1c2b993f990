package logsvc

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/quizadmin/core/user"
)

// NewZap builds the local zap logger: "json" format for production, console otherwise.
func NewZap(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// zapFields converts logger args (error, map[string]interface{}, user.User) into zap fields.
func zapFields(args []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(args))
	for i, arg := range args {
		switch val := arg.(type) {
		case error:
			fields = append(fields, zap.Error(val))
		case map[string]interface{}:
			for k, v := range val {
				fields = append(fields, zap.Any(k, v))
			}
		case user.User:
			fields = append(fields, zap.Int("user_id", val.ID), zap.String("username", val.Username))
		default:
			fields = append(fields, zap.Any(fmt.Sprintf("arg%d", i), val))
		}
	}
	return fields
}
