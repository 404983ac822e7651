package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"mcpbinder/config"
)

// Limits captures the concurrency and payload guardrails configured for the
// server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxConcurrentFetches  int

	// Payload and page bounds
	MaxPayloadBytes int
	PageSize        int

	// Timeouts and lifetimes
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
	ViewTTL               time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests, maxConcurrentFetches int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxConcurrentFetches <= 0 {
		maxConcurrentFetches = config.DefaultMaxConcurrentFetches
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxConcurrentFetches:  maxConcurrentFetches,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		PageSize:              config.DefaultPageSize,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
		ViewTTL:               config.DefaultViewTTL,
	}
}

// Controller coordinates runtime semaphores for request and store guardrails.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
	fetchSemaphore   *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		fetchSemaphore:   semaphore.NewWeighted(int64(limits.MaxConcurrentFetches)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireFetch reserves a collection store fetch slot.
func (c *Controller) AcquireFetch(ctx context.Context) error {
	return c.fetchSemaphore.Acquire(ctx, 1)
}

// ReleaseFetch frees a collection store fetch slot.
func (c *Controller) ReleaseFetch() {
	c.fetchSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
