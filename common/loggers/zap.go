package loggers

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	mediation "github.com/tradepost/go-mediation"
	"github.com/tradepost/go-mediation/models"
)

// NewLogger builds the production JSON logger, tagged with the service name. An empty level means debug.
func NewLogger(logLevel string) models.Logger {
	cfg := withTimestamps(zap.NewProductionConfig())
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	if len(logLevel) > 0 {
		parsedLevel, err := zap.ParseAtomicLevel(logLevel)
		if err != nil {
			log.Fatalf("loggers: invalid log level %q: %v", logLevel, err)
		}
		cfg.Level = parsedLevel
	}
	cfg.InitialFields = map[string]interface{}{"service": mediation.ServiceName}
	return zap.Must(cfg.Build()).Sugar()
}

func NewTestLogger() models.Logger {
	return zap.Must(withTimestamps(zap.NewDevelopmentConfig()).Build()).Sugar()
}

func withTimestamps(cfg zap.Config) zap.Config {
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
