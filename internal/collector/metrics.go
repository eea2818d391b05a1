package collector

import (
	"context"
	"time"
)

// Metrics is an interface that is used for the collection of the collector
// statistics.
type Metrics interface {
	// ObserveCollect records a collection cycle that has taken dur.
	// failedStage is empty if the cycle has succeeded.
	ObserveCollect(ctx context.Context, dur time.Duration, failedStage string)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// ObserveCollect implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) ObserveCollect(_ context.Context, _ time.Duration, _ string) {}
