package config

// Encode concurrency limits
const (
	MinParallel     = 1
	MaxParallel     = 32
	DefaultParallel = 16
)

// ClampParallel ensures the encode concurrency is within valid bounds.
func ClampParallel(n int) int {
	if n < MinParallel {
		return MinParallel
	}
	if n > MaxParallel {
		return MaxParallel
	}
	return n
}

// ValidLogLevels contains the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultLogLevel is used when log_level is missing or unknown.
const DefaultLogLevel = "info"

// IsValidLogLevel returns true if the level name is accepted.
func IsValidLogLevel(level string) bool {
	for _, valid := range ValidLogLevels {
		if level == valid {
			return true
		}
	}
	return false
}

// ValidateLogLevel returns the level if valid, or the default if invalid.
func ValidateLogLevel(level string) string {
	if IsValidLogLevel(level) {
		return level
	}
	return DefaultLogLevel
}
