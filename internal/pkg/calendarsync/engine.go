package calendarsync

import "context"

// Engine reconciles a provider calendar with stored events. The webhook
// receiver and the connect flow only decide when it runs and whether the run
// is full or incremental; everything behind this interface is opaque to them.
type Engine interface {
	SyncCalendar(ctx context.Context, orgID uint, fullSync bool, accessToken string) error
}
