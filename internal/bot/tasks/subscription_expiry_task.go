package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSubscriptionExpiryTask creates the scheduled task that reverts premium
// accounts whose expiry timestamp has passed back to the free plan.
func newSubscriptionExpiryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "subscription_expiry")

	return func(ctx context.Context) error {
		startTime := time.Now()

		count, err := deps.Store.ExpireLapsedSubscriptions(ctx, time.Now())
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Subscription expiry task failed", "error", err, "duration", duration)
			return fmt.Errorf("subscription expiry sweep failed: %w", err)
		}

		log.InfoContext(ctx, "Subscription expiry task completed", "reverted", count, "duration", duration)
		return nil
	}
}
