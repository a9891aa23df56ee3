package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levels = map[string]zapcore.Level{
	Debug:   zap.DebugLevel,
	Info:    zap.InfoLevel,
	Warning: zap.WarnLevel,
	Error:   zap.ErrorLevel,
}

// LoggerClient is the zap backed Logger.
type LoggerClient struct {
	// Zap is the underlying logger, for the few places that need zap itself.
	Zap *zap.Logger

	tracingEnabled bool
}

// NewLoggerClient builds a JSON zap logger with ISO8601 timestamps, capital levels
// and the service name and pid as default fields. It terminates the process when the
// configured output cannot be opened.
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:       logger.Info,
//	    ServiceName: "events-consume",
//	})
//	log.Info("Consumer started", nil, map[string]interface{}{"topics": topics})
func NewLoggerClient(cfg Config) *LoggerClient {
	level, ok := levels[cfg.Level]
	if !ok {
		level = zap.InfoLevel
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	callerSkip := cfg.CallerSkip
	if callerSkip <= 0 {
		callerSkip = 1
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder.EncodeCaller = zapcore.FullCallerEncoder
	encoder.EncodeDuration = zapcore.MillisDurationEncoder

	zl, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}.Build(zap.AddCaller(), zap.AddCallerSkip(callerSkip))
	if err != nil {
		log.Fatal(err)
	}

	return &LoggerClient{
		Zap:            zl,
		tracingEnabled: cfg.EnableTracing,
	}
}
