package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainartifact "tts-server-go/internal/domain/artifact"
	domainsynth "tts-server-go/internal/domain/synth"
	"tts-server-go/internal/domain/synth/infrastructure/adapters/sherpa"
	"tts-server-go/internal/domain/synth/inter"
	platformconfig "tts-server-go/internal/platform/config"
	platformerrors "tts-server-go/internal/platform/errors"
	platformlogging "tts-server-go/internal/platform/logging"
	platformobservability "tts-server-go/internal/platform/observability"
	platformstorage "tts-server-go/internal/platform/storage"
	httptransport "tts-server-go/internal/transport/http"
	httptts "tts-server-go/internal/transport/http/tts"
)

const scalarHTML = `<!DOCTYPE html>
<html lang="zh-CN">
	<head>
		<meta charset="utf-8" />
		<title>TTS API Reference</title>
		<meta name="viewport" content="width=device-width, initial-scale=1" />
	</head>
	<body>
		<script
			id="api-reference"
			data-url="/openapi.json"
			data-layout="modern"
			src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"
		></script>
	</body>
</html>`

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	manager               *domainsynth.Manager
	store                 *domainartifact.Store
}

// Run 启动整个服务生命周期，负责加载配置、初始化依赖和优雅关停。
func Run(ctx context.Context) error {
	state := &appState{}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	logBootstrapGraph(steps, logger)
	logger.InfoTag("引导", "模型目录: %s, 线程数: %d, 最大文本长度: %d, 输出目录: %s",
		config.Model.Dir, config.Model.NumThreads, config.Synth.MaxTextLength, config.Output.Dir)

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag("引导", "可观测性未正常关闭: %v", err)
			}
		}()
	}

	defer func() {
		if err := state.manager.Close(); err != nil {
			logger.ErrorTag("模型", "合成引擎未正常关闭: %v", err)
		}
		if err := platformstorage.Close(state.db); err != nil {
			logger.ErrorTag("存储", "数据库未正常关闭: %v", err)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("引导", "服务已退出")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("引导", "初始化依赖关系概览")

	stepNames := map[string]string{
		"config:load":               "加载配置",
		"logging:init-provider":     "初始化日志提供者",
		"observability:setup-hooks": "设置可观测性钩子",
		"storage:init-database":     "初始化数据库",
		"model:init-manager":        "初始化模型管理器",
		"model:preload":             "预加载合成引擎",
		"artifact:init-store":       "初始化制品仓库",
	}

	for _, step := range steps {
		if name, ok := stepNames[step.ID]; ok {
			logger.InfoTag("引导", "%s (%s)", name, step.ID)
		}
	}
	logger.InfoTag("引导", "启动服务")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph 返回按依赖顺序排列的初始化步骤。
// 模型预加载放在引导阶段：模型文件缺失时进程直接以非零状态退出，
// 而不是等到第一个请求才暴露部署问题。
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise artifact database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "model:init-manager",
			Title:     "Initialise synth manager",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindSynth,
			Execute:   initManagerStep,
		},
		{
			ID:        "model:preload",
			Title:     "Preload synthesis engine",
			DependsOn: []string{"model:init-manager"},
			Kind:      platformerrors.KindSynth,
			Execute:   preloadModelStep,
		},
		{
			ID:        "artifact:init-store",
			Title:     "Initialise artifact store",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStoreStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load config", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(&platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	platformlogging.DefaultLogger = logger

	logger.InfoTag("引导", "日志模块就绪 [%s] %s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state == nil || state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
	}

	shutdown, err := platformobservability.Setup(ctx, cfg, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Output.DatabasePath)
	if err != nil {
		return err
	}
	state.db = db
	state.logger.InfoTag("存储", "制品数据库就绪: %s", state.config.Output.DatabasePath)
	return nil
}

func initManagerStep(_ context.Context, state *appState) error {
	modelCfg := state.config.Model
	logger := state.logger

	manager, err := domainsynth.NewManager(func(ctx context.Context) (inter.Engine, error) {
		return sherpa.NewEngine(modelCfg, logger)
	}, logger)
	if err != nil {
		return err
	}
	state.manager = manager
	return nil
}

func preloadModelStep(ctx context.Context, state *appState) error {
	if _, err := state.manager.EnsureReady(ctx); err != nil {
		return err
	}
	return nil
}

func initStoreStep(_ context.Context, state *appState) error {
	repo := platformstorage.NewArtifactRepository(state.db)
	store, err := domainartifact.NewStore(state.config.Output.Dir, repo, state.logger)
	if err != nil {
		return err
	}
	state.store = store
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	staticRoot := config.Web.StaticDir
	if staticRoot == "" {
		staticRoot = "./web"
	}

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:     config,
		Logger:     logger,
		StaticRoot: staticRoot,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			httptransport.RespondError(c, http.StatusNotFound, "接口不存在")
			return
		}
		c.File(staticRoot + "/index.html")
	})

	ttsService, err := httptts.NewService(config, logger, state.manager, state.store)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "tts:new-service", "failed to create tts service", err)
	}
	if err := ttsService.Register(groupCtx, router, httpRouter.API); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "tts:register-routes", "failed to register tts routes", err)
	}

	router.GET("/openapi.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc()
		if err != nil {
			logger.ErrorTag("HTTP", "生成 OpenAPI 文档失败: %v", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "failed to generate openapi spec")
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	router.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(scalarHTML))
	})

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "Gin 服务已启动，访问地址 http://localhost:%d", config.Server.Port)
		logger.InfoTag("HTTP", "在线文档入口: http://localhost:%d/docs", config.Server.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP 服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP 服务已优雅关闭")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP 服务启动失败: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func startCleanupScheduler(state *appState, g *errgroup.Group, groupCtx context.Context) {
	scheduler := domainartifact.NewScheduler(
		state.store,
		state.config.Output.CleanupInterval,
		state.config.Output.Retention,
		state.logger,
	)
	g.Go(func() error {
		return scheduler.Run(groupCtx)
	})
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if _, err := startHTTPServer(state, g, groupCtx); err != nil {
		return fmt.Errorf("启动 Http 服务失败: %w", err)
	}

	startCleanupScheduler(state, g, groupCtx)
	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("引导", "收到系统信号 %v，正在进行资源清理", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("服务关闭超时")
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return timeoutErr
	}
	return nil
}
