package synth

import (
	"context"
	"sync"
	"sync/atomic"

	"tts-server-go/internal/domain/synth/inter"
	"tts-server-go/internal/platform/errors"
	"tts-server-go/internal/platform/logging"
)

// BuildFunc 构造底层合成引擎。构造开销大(加载模型)，由 Manager 保证全局只执行一次。
type BuildFunc func(ctx context.Context) (inter.Engine, error)

// Manager 管理引擎的懒加载单例。并发调用 EnsureReady 时只有一个调用者
// 真正执行构造，其余阻塞等待同一结果；构造失败是永久性的，不会重试。
type Manager struct {
	build  BuildFunc
	logger *logging.Logger

	once   sync.Once
	ready  atomic.Bool
	engine inter.Engine
	err    error
}

// NewManager 创建引擎管理器
func NewManager(build BuildFunc, logger *logging.Logger) (*Manager, error) {
	if build == nil {
		return nil, errors.New(errors.KindConfig, "synth.manager", "缺少引擎构造函数")
	}
	return &Manager{
		build:  build,
		logger: logger,
	}, nil
}

// EnsureReady 返回就绪的引擎。首次调用触发构造，构造结果(包括失败)被缓存，
// 后续所有调用直接返回缓存结果。
func (m *Manager) EnsureReady(ctx context.Context) (inter.Engine, error) {
	m.once.Do(func() {
		m.logger.InfoTag("模型", "正在初始化合成引擎...")
		engine, err := m.build(ctx)
		if err != nil {
			m.err = errors.Wrap(errors.KindSynth, "synth.manager", "引擎初始化失败", err)
			m.logger.ErrorTag("模型", "引擎初始化失败: %v", err)
			return
		}
		m.engine = engine
		m.ready.Store(true)
		m.logger.InfoTag("模型", "合成引擎初始化完成: %s", engine.ModelName())
	})
	return m.engine, m.err
}

// Ready 报告引擎是否已成功初始化，不触发构造
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

// Close 释放已初始化的引擎
func (m *Manager) Close() error {
	if m.ready.Load() {
		return m.engine.Close()
	}
	return nil
}
