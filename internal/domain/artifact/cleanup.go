package artifact

import (
	"context"
	"time"

	"tts-server-go/internal/platform/logging"
)

// Scheduler 周期性触发过期制品清理，随服务生命周期启停
type Scheduler struct {
	store    *Store
	interval time.Duration
	ttl      time.Duration
	logger   *logging.Logger
}

// NewScheduler 创建清理调度器
func NewScheduler(store *Store, interval, ttl time.Duration, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
	}
}

// Run 阻塞运行清理循环，直到 ctx 取消。清理轮次本身不会让循环退出。
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoTag("清理", "清理调度器启动: interval=%v, ttl=%v", s.interval, s.ttl)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoTag("清理", "清理调度器退出")
			return nil
		case <-ticker.C:
			s.store.EvictExpired(ctx, s.ttl)
		}
	}
}
