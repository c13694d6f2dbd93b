package ui

import "weibodl/pkg/trigger"

// Dashboard follows a watch session: attached controls, activations and
// their outcomes
type Dashboard interface {
	ControlAttached(permalink string)
	ActivationStarted(permalink string)
	ActivationFinished(permalink string, outcome *trigger.Outcome, err error)
	LogInfo(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	// IsPaused reports whether automatic activation is suspended
	IsPaused() bool
}
