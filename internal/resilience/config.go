package resilience

import "time"

// FromRetryConfig builds a RetryConfig from plain config values; zero values
// keep the base defaults.
func FromRetryConfig(base RetryConfig, maxAttempts, initialBackoffMs, maxBackoffMs int) RetryConfig {
	if maxAttempts > 0 {
		base.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		base.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		base.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	return base
}

// FromCircuitConfig builds a CircuitBreakerConfig from plain config values.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
