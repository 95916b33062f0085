// Package logger provides structured logging for the Reqstly backend.
//
// It wraps Uber's zap logger and exposes a global instance configured from
// the LOG_LEVEL setting. Authentication and audit paths log through it so
// that security events (failed logins, clone warnings) end up in one stream.
//
//	logger.Log.Info("user logged in",
//	    zap.String("user_id", userID),
//	    zap.String("provider", "password"),
//	)
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger = zap.NewNop()

func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Log, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}
