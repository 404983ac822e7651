package config

import "time"

// Default runtime limits and guardrails for the MCP Card Binder Server.
// These values are conservative and can be overridden by flags or environment
// variables at startup. They are referenced by internal/runtime and cmd/server.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxConcurrentFetches  = 4

	// Payload and page limits
	DefaultMaxPayloadBytes = 64 * 1024 // 64KB per rendered view
	DefaultPageSize        = 12        // cards per rendered page
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Interactive view lifetime. Fixed per view; navigation does not extend it.
	DefaultViewTTL = 5 * time.Minute

	// How often the registry sweeps for expired views. Dispatch also checks
	// expiry lazily, so the sweep only bounds how long dead views linger.
	DefaultViewSweepPeriod = 30 * time.Second
)
