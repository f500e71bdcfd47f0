package orchestrator

import (
	"os"
	"time"
)

// Exit codes of the apply workflow
const (
	ExitSuccess       = 0
	ExitFailure       = 1
	ExitAlreadyTagged = 2
)

// CompensationTimeout bounds the cleanup performed after a failed step
var CompensationTimeout = getTimeoutOrDefault("SEMTAG_COMPENSATION_TIMEOUT", 2*time.Minute)

// getTimeoutOrDefault reads a duration from the environment
func getTimeoutOrDefault(envVar string, fallback time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	return fallback
}
