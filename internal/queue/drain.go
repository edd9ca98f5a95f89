package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultDrainInterval = 10 * time.Minute

var drainMu sync.Mutex

// DrainOnce processes new payloads and logs the outcome.
func DrainOnce(ctx context.Context, h *Handler, logger *zap.Logger) {
	drainMu.Lock()
	defer drainMu.Unlock()

	stats, err := h.ProcessNew(ctx)
	if err != nil {
		logger.Error("Payload drain failed", zap.Error(err))
		return
	}
	if stats.Processed > 0 || stats.Failed > 0 {
		logger.Info("Payload drain finished", zap.Int("processed", stats.Processed), zap.Int("failed", stats.Failed))
	}
}

// RunDrainLoop drains once, then every interval. Call from a goroutine.
func RunDrainLoop(ctx context.Context, h *Handler, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultDrainInterval
	}

	DrainOnce(ctx, h, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			DrainOnce(ctx, h, logger)
		}
	}
}
