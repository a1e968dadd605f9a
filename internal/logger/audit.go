package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewAuditLogger builds an append-only JSON logger writing to path. It is kept
// apart from the application logger because its entries carry merchant
// credentials and raw gateway bodies.
func NewAuditLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
