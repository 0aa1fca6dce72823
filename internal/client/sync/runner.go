package sync

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval период фонового дельта-pull. Realtime-каналу
// poll служит страховкой: пропущенное invalidate-событие догоняется
// следующим циклом.
const DefaultPollInterval = 60 * time.Second

// Runner гоняет фоновые циклы синхронизации: один сразу на старте,
// дальше по таймеру и по внешним пинкам (восстановление сети,
// invalidate-событие).
type Runner struct {
	service  Service
	logger   *slog.Logger
	interval time.Duration
	kick     chan struct{}
}

// NewRunner creates a background sync runner
func NewRunner(service Service, logger *slog.Logger, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Runner{
		service:  service,
		logger:   logger,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Kick запрашивает внеочередной цикл синхронизации. Не блокирует:
// если цикл уже запрошен, повторный пинок схлопывается.
func (r *Runner) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run крутит циклы синхронизации до отмены контекста.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.syncOnce(ctx)
		case <-r.kick:
			r.syncOnce(ctx)
		}
	}
}

func (r *Runner) syncOnce(ctx context.Context) {
	result, err := r.service.Sync(ctx)
	if err != nil {
		r.logger.Warn("background sync failed", "error", err)
		return
	}
	if result.Flush != nil && result.Flush.Offline {
		r.logger.Debug("background sync skipped pull, offline")
	}
}
