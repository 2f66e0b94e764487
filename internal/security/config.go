// Package security provides centralized security configuration and utilities:
// structured security logging, per-user rate limiting and request validation.
package security

import (
	"time"
)

// SecurityConfig holds all security-related configuration values.
type SecurityConfig struct {
	// Request limits
	BodyLimit        int // Maximum request body in bytes
	MaxMessageLength int // Maximum characters in a chat message
	MaxNoteLength    int // Maximum characters in a check-in note

	// Rate limiting (requests per window, per user)
	RateLimitWindow   time.Duration
	RateLimitCheckIn  int
	RateLimitMessage  int
	RateLimitJoin     int
	RateLimitIdleTTL  time.Duration // Buckets idle longer than this are dropped
	RateLimitSweepGap time.Duration // How often idle buckets are swept

	// Monitoring
	MonitoringInterval    time.Duration // Window over which denials are counted
	AlertThresholdDenials int           // Access denials per IP before alerting

	// Response headers
	StrictTransport bool // Send HSTS (production only)
}

// DefaultSecurityConfig returns security configuration with recommended defaults.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		BodyLimit:        64 * 1024,
		MaxMessageLength: 2000,
		MaxNoteLength:    1000,

		RateLimitWindow:   time.Minute,
		RateLimitCheckIn:  20,
		RateLimitMessage:  30,
		RateLimitJoin:     10,
		RateLimitIdleTTL:  time.Hour,
		RateLimitSweepGap: 10 * time.Minute,

		MonitoringInterval:    5 * time.Minute,
		AlertThresholdDenials: 20,
	}
}
