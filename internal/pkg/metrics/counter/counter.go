package counter

import (
	"context"
	"strconv"

	"github.com/MaxKoenig/ClubSync/internal/pkg/cache"
)

const (
	webhookNotificationsKey = "calendar:counters:notifications"
	renewalsRenewedKey      = "calendar:counters:renewals:renewed"
	renewalsFailedKey       = "calendar:counters:renewals:failed"
)

// AddWebhookNotification increments the handled notification counter for an
// organization in Redis. Best effort; callers typically ignore the error.
func AddWebhookNotification(orgID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(orgID), 10)
	return cache.GetClient().HIncrBy(ctx, webhookNotificationsKey, field, 1).Err()
}

// AddRenewalRun records the aggregate outcome of one renewal batch.
func AddRenewalRun(renewed, failed int) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	if renewed > 0 {
		if err := rdb.IncrBy(ctx, renewalsRenewedKey, int64(renewed)).Err(); err != nil {
			return err
		}
	}
	if failed > 0 {
		if err := rdb.IncrBy(ctx, renewalsFailedKey, int64(failed)).Err(); err != nil {
			return err
		}
	}
	return nil
}
