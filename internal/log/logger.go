package log

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	Log *zap.Logger
}

// New builds a JSON zap logger writing to stdout with the app name as an initial field.
func New(name, level string) *Logger {
	stringCfg := fmt.Sprintf(`{
		"level": "%s",
		"encoding": "json",
		"outputPaths": ["stdout"],
		"errorOutputPaths": ["stderr"],
		"initialFields": {"app_name": "%s"},
		"encoderConfig": {
		  "messageKey": "message",
		  "levelKey": "level",
		  "timeKey": "timestamp",
		  "levelEncoder": "lowercase"
		}
	}`, ParseLevel(level), name)

	var cfg zap.Config
	if err := json.Unmarshal([]byte(stringCfg), &cfg); err != nil {
		panic(fmt.Sprintf("FATAL ERROR: loading logger %s", err))
	}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05Z0700"))
	})

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("FATAL ERROR: loading logger %s", err))
	}

	return &Logger{
		Log: logger,
	}
}

// ParseLevel normalizes a LOG_LEVEL value, falling back to info.
func ParseLevel(l string) string {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return "debug"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	case "fatal":
		return "fatal"
	default:
		return "info"
	}
}

func (l *Logger) Logger() *zap.Logger {
	return l.Log
}

func (l *Logger) Sync() {
	_ = l.Log.Sync()
}
