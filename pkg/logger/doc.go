// Package logger provides a structured logging interface for weibodl.
//
// It wraps zerolog behind the Logger interface so that components depend on
// an interface and tests can substitute TestLogger or NewNopLogger.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//
//	logger.Info("weibodl starting")
//	logger.WithField("post_id", "Kx1aBcD").Info("activation started")
//
// Components receive a Logger and attach their own fields:
//
//	log := logger.GetLogger().WithField("component", "scanner")
//	log.InfoWithFields("controls attached", map[string]interface{}{
//	    "count": 3,
//	})
//
// Console output is written to stderr with colored levels. When a log file is
// configured, JSON lines are also appended to that file.
package logger
