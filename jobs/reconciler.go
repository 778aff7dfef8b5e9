package jobs

import (
	"sync"

	"github.com/jaujye/ocean-shopping-center-sub001/services"
	"go.uber.org/zap"
)

// Reconciler runs the scheduled repair work: re-attempting delivery of
// PENDING notifications and purging expired ones. Each job carries its own
// overlap guard so a slow run is skipped rather than stacked; across
// instances the claim-based status update in the store keeps duplicate runs
// from double-flipping rows.
type Reconciler struct {
	notifications *services.NotificationService
	log           *zap.SugaredLogger

	retryMu sync.Mutex
	purgeMu sync.Mutex
}

func NewReconciler(notifications *services.NotificationService, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{notifications: notifications, log: log}
}

func (r *Reconciler) RetryPendingNotifications() {
	if !r.retryMu.TryLock() {
		r.log.Debugw("pending notification retry already running, skipping")
		return
	}
	defer r.retryMu.Unlock()

	claimed, err := r.notifications.ProcessPendingNotifications()
	if err != nil {
		r.log.Errorw("pending notification retry failed", "error", err)
		return
	}
	if claimed > 0 {
		r.log.Infow("pending notifications reprocessed", "claimed", claimed)
	}
}

func (r *Reconciler) PurgeExpiredNotifications() {
	if !r.purgeMu.TryLock() {
		r.log.Debugw("expired notification purge already running, skipping")
		return
	}
	defer r.purgeMu.Unlock()

	removed, err := r.notifications.CleanupExpiredNotifications()
	if err != nil {
		r.log.Errorw("expired notification purge failed", "error", err)
		return
	}
	if removed > 0 {
		r.log.Infow("expired notifications purged", "removed", removed)
	}
}
