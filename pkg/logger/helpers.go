package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogActivation logs the end of a single post activation
func LogActivation(l Logger, activationID, postID string, assets, failed int, err error) {
	fields := map[string]interface{}{
		"activation_id": activationID,
		"post_id":       postID,
		"assets":        assets,
		"failed":        failed,
	}

	switch {
	case err != nil:
		l.WithError(err).ErrorWithFields("Activation abandoned", fields)
	case failed > 0:
		l.WarnWithFields("Activation finished with failed assets", fields)
	default:
		l.InfoWithFields("Activation completed", fields)
	}
}

// LogDownload logs the terminal outcome of one asset download
func LogDownload(l Logger, filename, url string, attempts int, err error) {
	fields := map[string]interface{}{
		"filename": filename,
		"url":      url,
		"attempts": attempts,
	}

	if err != nil {
		l.WithError(err).ErrorWithFields("Download abandoned", fields)
		return
	}
	l.DebugWithFields("Download completed", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)

	if len(config) > 0 {
		logger = logger.WithFields(config)
	}

	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
