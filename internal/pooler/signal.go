package pooler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// WatchSignals logs every SIGINT it receives and keeps running; it never
// initiates shutdown itself. Actual process termination is driven
// externally, by cmd/pgpool cancelling the context this and every other
// component share.
func WatchSignals(ctx context.Context, log *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			log.Info("pooler: SIGINT")
		}
	}
}
