package protoasm

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted by LogConfig.Level.
const (
	LogDebug   = "debug"
	LogInfo    = "info"
	LogWarning = "warning"
	LogError   = "error"
)

// LogConfig selects the level and service name of the logger built by
// NewLogger.
type LogConfig struct {
	Level       string `yaml:"level"`
	ServiceName string `yaml:"serviceName"`
}

func (c LogConfig) zapLevel() (zapcore.Level, error) {
	switch c.Level {
	case LogDebug:
		return zap.DebugLevel, nil
	case "", LogInfo:
		return zap.InfoLevel, nil
	case LogWarning:
		return zap.WarnLevel, nil
	case LogError:
		return zap.ErrorLevel, nil
	}
	return 0, fmt.Errorf("protoasm: unknown log level %q", c.Level)
}

// NewLogger builds a JSON logger writing to stderr with ISO8601 timestamps.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := cfg.zapLevel()
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	fields := map[string]interface{}{"pid": os.Getpid()}
	if cfg.ServiceName != "" {
		fields["service"] = cfg.ServiceName
	}
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    fields,
	}
	return config.Build(zap.AddCaller())
}
