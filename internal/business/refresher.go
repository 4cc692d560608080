package business

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/mkmemoportal/auth-gateway/internal/gateway"
)

type configRefresher interface {
	Refresh(ctx context.Context) (gateway.Config, error)
}

// startConfigRefresher reloads the gateway configuration every interval so
// that rotated parameters are picked up without a restart. A failed reload
// keeps serving the previous configuration.
func startConfigRefresher(ctx context.Context, loader configRefresher, interval time.Duration) error {
	c := time.Tick(interval)
	for {
		select {
		case <-c:
			slogctx.Debug(ctx, "Triggering configuration refresh")
			if _, err := loader.Refresh(ctx); err != nil {
				slogctx.Error(ctx, "Failed to refresh the gateway configuration", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
