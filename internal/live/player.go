package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/vsync/pkg/vdom"
)

// Play renders trees into hub in a loop, one every interval, until ctx is
// done. Each tree is cloned before rendering so the slice can be replayed.
// Render errors are logged and playback continues.
func Play(ctx context.Context, hub *Hub, trees []*vdom.VNode, interval time.Duration, logger *slog.Logger) {
	if len(trees) == 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		next := vdom.Clone(trees[i%len(trees)])
		stats, err := hub.Render(ctx, next)
		if err != nil {
			logger.Error("render failed", "frame", i%len(trees), "error", err)
		} else {
			logger.Debug("render", "frame", i%len(trees), "stats", stats.String())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
