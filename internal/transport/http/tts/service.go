package tts

import (
	"context"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"tts-server-go/internal/domain/artifact"
	"tts-server-go/internal/domain/audio"
	"tts-server-go/internal/domain/synth"
	"tts-server-go/internal/platform/config"
	"tts-server-go/internal/platform/errors"
	"tts-server-go/internal/platform/logging"
	httptransport "tts-server-go/internal/transport/http"
)

const serviceVersion = "1.0.0"

// Service 语音合成服务的HTTP传输层实现
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	manager   *synth.Manager
	validator *synth.Validator
	store     *artifact.Store
}

// NewService 创建语音合成HTTP服务实例
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	manager *synth.Manager,
	store *artifact.Store,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.KindConfig, "tts.new", "config is required", nil)
	}
	if logger == nil {
		return nil, errors.Wrap(errors.KindConfig, "tts.new", "logger is required", nil)
	}
	if manager == nil {
		return nil, errors.Wrap(errors.KindConfig, "tts.new", "synth manager is required", nil)
	}
	if store == nil {
		return nil, errors.Wrap(errors.KindConfig, "tts.new", "artifact store is required", nil)
	}

	return &Service{
		config:    cfg,
		logger:    logger,
		manager:   manager,
		validator: synth.NewValidator(cfg.Synth),
		store:     store,
	}, nil
}

// Register 注册语音合成相关的HTTP路由
func (s *Service) Register(ctx context.Context, engine *gin.Engine, api *gin.RouterGroup) error {
	engine.GET("/health", s.handleHealth)

	api.GET("/info", s.handleInfo)
	api.POST("/tts", s.handleSynthesize)
	api.POST("/tts/stream", s.handleStream)
	api.GET("/download/:id", s.handleDownload)

	s.logger.InfoTag("HTTP", "TTS服务路由注册完成")
	return nil
}

// handleHealth 健康检查
// @Summary 健康检查
// @Description 检查合成引擎是否就绪，未就绪返回 503
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	engine, err := s.manager.EnsureReady(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Model:     engine.ModelName(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleInfo 服务信息
// @Summary 服务信息
// @Description 返回服务版本、模型信息、参数范围和系统资源占用
// @Tags info
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /api/info [get]
func (s *Service) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Service:   "tts-server",
		Version:   serviceVersion,
		Languages: []string{"zh", "en"},
		Model: ModelInfo{
			Name:       s.config.Model.Name,
			Dir:        s.config.Model.Dir,
			NumThreads: s.config.Model.NumThreads,
			Ready:      s.manager.Ready(),
		},
		Limits: LimitsInfo{
			MaxTextLength: s.config.Synth.MaxTextLength,
			SpeedMin:      synth.SpeedMin,
			SpeedMax:      synth.SpeedMax,
			SpeedDefault:  s.config.Synth.DefaultSpeed,
			VolumeMin:     synth.VolumeMin,
			VolumeMax:     synth.VolumeMax,
			VolumeDefault: s.config.Synth.DefaultVolume,
			Formats:       []string{"wav"},
		},
		Endpoints: map[string]string{
			"health":   "GET /health",
			"info":     "GET /api/info",
			"tts":      "POST /api/tts",
			"stream":   "POST /api/tts/stream",
			"download": "GET /api/download/{id}",
		},
		System: collectSystemInfo(),
	})
}

// handleSynthesize 合成并返回元数据
// @Summary 文本合成语音
// @Description 合成音频落盘，返回制品元数据和下载地址
// @Tags tts
// @Accept json
// @Produce json
// @Param request body synth.RawRequest true "合成参数"
// @Success 200 {object} SynthesizeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/tts [post]
func (s *Service) handleSynthesize(c *gin.Context) {
	saved, req, metrics, ok := s.synthesize(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SynthesizeResponse{
		Success:        true,
		FileID:         saved.ID,
		Filename:       saved.Filename,
		DownloadURL:    "/api/download/" + saved.ID,
		Duration:       round2(metrics.duration),
		SampleRate:     saved.SampleRate,
		GenerationTime: round2(metrics.generationTime),
		RTF:            round3(metrics.rtf),
		Volume:         req.Volume,
		Speed:          req.Speed,
		TextLength:     len([]rune(req.Text)),
		FileSize:       saved.Size,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

// handleStream 合成并直接返回音频字节
// @Summary 文本合成语音(流式下载)
// @Description 合成音频落盘后直接作为附件返回
// @Tags tts
// @Accept json
// @Produce audio/wav
// @Param request body synth.RawRequest true "合成参数"
// @Success 200 {file} binary
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/tts/stream [post]
func (s *Service) handleStream(c *gin.Context) {
	saved, _, _, ok := s.synthesize(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.FileAttachment(saved.Path, "output.wav")
}

// handleDownload 下载制品
// @Summary 下载合成音频
// @Description 按制品 ID 下载 WAV 文件，过期或不存在返回 404
// @Tags tts
// @Produce audio/wav
// @Param id path string true "制品 ID"
// @Success 200 {file} binary
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/download/{id} [get]
func (s *Service) handleDownload(c *gin.Context) {
	id := c.Param("id")

	a, err := s.store.Open(c.Request.Context(), id)
	if err != nil {
		if errors.IsKind(err, errors.KindNotFound) {
			httptransport.RespondError(c, http.StatusNotFound, "文件不存在或已过期")
			return
		}
		s.logger.ErrorTag("HTTP", "打开制品失败 %s: %v", id, err)
		httptransport.RespondError(c, http.StatusInternalServerError, "读取文件失败")
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.FileAttachment(a.Path, a.Filename)
}

type synthesisMetrics struct {
	duration       float64
	generationTime float64
	rtf            float64
}

// synthesize 公共合成流程：校验 -> 引擎 -> 增益 -> 落盘。
// 校验失败在调用后端之前就返回，不消耗合成资源。
func (s *Service) synthesize(c *gin.Context) (*artifact.Artifact, *synth.Request, synthesisMetrics, bool) {
	var metrics synthesisMetrics

	var raw synth.RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "请求体不是合法的 JSON")
		return nil, nil, metrics, false
	}

	req, err := s.validator.Validate(&raw)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, errorMessage(err))
		return nil, nil, metrics, false
	}

	engine, err := s.manager.EnsureReady(c.Request.Context())
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, "合成引擎不可用")
		return nil, nil, metrics, false
	}

	s.logger.InfoTTS("开始合成: text=%q, speed=%.2f, volume=%.2f",
		truncateText(req.Text, 50), req.Speed, req.Volume)

	start := time.Now()
	result, err := engine.Synthesize(c.Request.Context(), req.Text, s.config.Model.SpeakerID, req.Speed)
	if err != nil {
		s.logger.ErrorTag("TTS", "合成失败: %v", err)
		httptransport.RespondError(c, httptransport.StatusForError(err), "语音合成失败")
		return nil, nil, metrics, false
	}
	metrics.generationTime = time.Since(start).Seconds()

	if result.Empty() {
		s.logger.ErrorTag("TTS", "合成结果为空音频")
		httptransport.RespondError(c, http.StatusInternalServerError, "合成结果为空")
		return nil, nil, metrics, false
	}

	samples := audio.ApplyGain(result.Samples, req.Volume)
	metrics.duration = result.Duration()
	if metrics.duration > 0 {
		metrics.rtf = metrics.generationTime / metrics.duration
	}

	saved, err := s.store.Save(c.Request.Context(), samples, result.SampleRate)
	if err != nil {
		s.logger.ErrorTag("TTS", "保存制品失败: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "保存音频失败")
		return nil, nil, metrics, false
	}

	s.logger.InfoTTS("合成完成: id=%s, duration=%.2fs, gen_time=%.2fs, rtf=%.3f, volume=%.1fx",
		saved.ID, metrics.duration, metrics.generationTime, metrics.rtf, req.Volume)

	return saved, req, metrics, true
}

// collectSystemInfo 采集进程与主机资源信息，采集失败的字段置零
func collectSystemInfo() SystemInfo {
	var info SystemInfo

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryUsedPercent = round2(vm.UsedPercent)
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			info.ProcessRSSBytes = memInfo.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			info.CPUPercent = round2(cpu)
		}
		if created, err := proc.CreateTime(); err == nil {
			info.UptimeSeconds = (time.Now().UnixMilli() - created) / 1000
		}
	}
	return info
}

// errorMessage 提取面向客户端的错误文案，剥掉内部的 kind/op 前缀
func errorMessage(err error) string {
	var typed *errors.Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
