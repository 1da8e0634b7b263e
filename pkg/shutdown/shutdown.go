package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// WithSignals returns a context cancelled on the first of sigs, SIGINT or
// SIGTERM when none are given.
func WithSignals(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ctx.Done():
			return
		case <-ch:
			cancel()
		}
	}()

	return ctx, cancel
}

type Step struct {
	Name string
	Stop func(ctx context.Context) error
}

// Run executes steps in order under one shared deadline. A failing step is
// logged and the rest still run. It returns the number of failed steps.
func Run(log *slog.Logger, timeout time.Duration, steps ...Step) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	failed := 0
	for _, s := range steps {
		start := time.Now()
		if err := s.Stop(ctx); err != nil {
			failed++
			log.Error("shutdown step failed", slog.String("step", s.Name), slog.Any("err", err))
			continue
		}
		log.Debug("shutdown step done", slog.String("step", s.Name), slog.Duration("took", time.Since(start)))
	}
	return failed
}
