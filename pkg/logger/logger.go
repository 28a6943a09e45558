package logger

import (
	"fmt"

	"github.com/GlebRadaev/venuebooking/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	timeLayout  = "15:04:05 02-01-2006"
	serviceName = "venuebooking"
)

var logLvlMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// InitLogger replaces the global zap logger according to cfg.
func InitLogger(conf *config.Config) error {
	lvl, ok := logLvlMap[conf.LogLvl]
	if !ok {
		return fmt.Errorf("unsupported log lvl: %s", conf.LogLvl)
	}

	encoding, levelEncoder := "console", zapcore.CapitalColorLevelEncoder
	switch conf.LogFormat {
	case "", "console":
	case "json":
		encoding, levelEncoder = "json", zapcore.LowercaseLevelEncoder
	default:
		return fmt.Errorf("unsupported log format: %s", conf.LogFormat)
	}

	c := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeLevel:    levelEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"service": serviceName},
	}

	logger, err := c.Build()
	if err != nil {
		return fmt.Errorf("unable to create zap logger, error: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}
