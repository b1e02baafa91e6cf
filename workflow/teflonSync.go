package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/moldtrack_backend/utils"
	"github.com/sirupsen/logrus"
)

// RunSync is the polling approximation of multi-device consistency: a fixed
// interval tick plus event triggers (tab focus, visibility) both funnel into
// the same single-flight reload. Periodic failures are logged, never
// surfaced; the manual path (ManualRefresh) surfaces them.
func (e *TeflonEngine) RunSync(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(e.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.syncOnce(ctx, "tick")
		case reason := <-e.triggerCh:
			e.syncOnce(ctx, reason)
		}
	}
}

// TriggerSync requests a reload from an event source. Non-blocking: when a
// trigger is already queued or a reload is running, the new one collapses
// into it.
func (e *TeflonEngine) TriggerSync(reason string) {
	select {
	case e.triggerCh <- reason:
	default:
	}
}

// ManualRefresh is the user-initiated path; unlike the periodic one it
// returns the failure (including ErrReloadInFlight) to the caller.
func (e *TeflonEngine) ManualRefresh(ctx context.Context) error {
	return e.reloadOnce(ctx, "manual")
}

func (e *TeflonEngine) syncOnce(ctx context.Context, reason string) {
	err := e.reloadOnce(ctx, reason)
	if err == nil || errors.Is(err, utils.ErrReloadInFlight) {
		return
	}
	e.logger.WithFields(logrus.Fields{
		"reason": reason,
	}).Warn("teflon.sync.failed: " + err.Error())
}

// reloadOnce does one full reload + reconcile, guarded by the single-flight
// flag so overlapping triggers collapse into one flight.
func (e *TeflonEngine) reloadOnce(ctx context.Context, reason string) error {
	if !e.reloadInFlight.CompareAndSwap(false, true) {
		return utils.ErrReloadInFlight
	}
	defer e.reloadInFlight.Store(false)

	start := time.Now()
	snap, err := e.store.LoadTeflonSnapshot(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.snapshot = snap
	e.rebuildLocked()
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"reason":     reason,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("teflon.reload.end")
	return nil
}
