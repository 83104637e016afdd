package sherpa

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tts-server-go/internal/domain/audio"
	"tts-server-go/internal/domain/synth/inter"
	"tts-server-go/internal/platform/config"
	"tts-server-go/internal/platform/errors"
	"tts-server-go/internal/platform/logging"
)

// 模型目录必须包含的文件/子目录，缺一即构造失败
var requiredFiles = []string{"model.onnx", "lexicon.txt", "tokens.txt", "dict"}

// 可选的文本规范化 fst，存在则启用
var optionalFsts = []string{"phone.fst", "date.fst", "number.fst"}

// Engine 通过 sherpa-onnx 离线 TTS 命令行合成音频。
// 构造时做模型文件预检，避免首次请求才暴露部署问题。
type Engine struct {
	cfg      config.ModelConfig
	logger   *logging.Logger
	binary   string
	ruleFsts []string
}

// NewEngine 创建 sherpa-onnx 引擎。模型目录缺少必需文件时立即失败。
func NewEngine(cfg config.ModelConfig, logger *logging.Logger) (*Engine, error) {
	const op = "sherpa.init"

	for _, name := range requiredFiles {
		path := filepath.Join(cfg.Dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, errors.New(errors.KindSynth, op,
				fmt.Sprintf("模型文件缺失: %s", path))
		}
	}

	var ruleFsts []string
	for _, name := range optionalFsts {
		path := filepath.Join(cfg.Dir, name)
		if _, err := os.Stat(path); err == nil {
			ruleFsts = append(ruleFsts, path)
		}
	}

	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, errors.Wrap(errors.KindSynth, op,
			fmt.Sprintf("未找到合成程序 %s", cfg.Binary), err)
	}

	logger.InfoTag("模型", "模型预检通过: dir=%s, rule_fsts=%d, threads=%d",
		cfg.Dir, len(ruleFsts), cfg.NumThreads)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		binary:   binary,
		ruleFsts: ruleFsts,
	}, nil
}

// Synthesize 调用 sherpa-onnx 命令行生成 WAV，再解码为归一化采样返回。
func (e *Engine) Synthesize(ctx context.Context, text string, speakerID int, speed float64) (*inter.Result, error) {
	const op = "sherpa.synthesize"

	outFile, err := os.CreateTemp("", "tts-*.wav")
	if err != nil {
		return nil, errors.Wrap(errors.KindSynth, op, "创建临时文件失败", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	// sherpa 用 length_scale 控制语速，与直觉相反：值越小语速越快
	args := []string{
		fmt.Sprintf("--vits-model=%s", filepath.Join(e.cfg.Dir, "model.onnx")),
		fmt.Sprintf("--vits-lexicon=%s", filepath.Join(e.cfg.Dir, "lexicon.txt")),
		fmt.Sprintf("--vits-tokens=%s", filepath.Join(e.cfg.Dir, "tokens.txt")),
		fmt.Sprintf("--vits-dict-dir=%s", filepath.Join(e.cfg.Dir, "dict")),
		fmt.Sprintf("--vits-length-scale=%f", 1.0/speed),
		fmt.Sprintf("--num-threads=%d", e.cfg.NumThreads),
		fmt.Sprintf("--sid=%d", speakerID),
		fmt.Sprintf("--output-filename=%s", outPath),
	}
	if len(e.ruleFsts) > 0 {
		args = append(args, fmt.Sprintf("--tts-rule-fsts=%s", strings.Join(e.ruleFsts, ",")))
	}
	args = append(args, text)

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		e.logger.ErrorTag("模型", "合成进程失败: %v, output=%s", err, string(output))
		return nil, errors.Wrap(errors.KindSynth, op, "合成进程执行失败", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errors.Wrap(errors.KindSynth, op, "读取合成结果失败", err)
	}

	samples, sampleRate, err := audio.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.KindSynth, op, "解析合成结果失败", err)
	}
	if len(samples) == 0 {
		return nil, errors.New(errors.KindSynth, op, "合成结果为空音频")
	}

	e.logger.DebugTag("模型", "合成完成: samples=%d, rate=%d, elapsed=%v",
		len(samples), sampleRate, time.Since(start))

	return &inter.Result{
		Samples:    samples,
		SampleRate: sampleRate,
	}, nil
}

// ModelName 返回配置的模型名称
func (e *Engine) ModelName() string {
	if e.cfg.Name != "" {
		return e.cfg.Name
	}
	return filepath.Base(e.cfg.Dir)
}

// Close 无持久资源需要释放
func (e *Engine) Close() error {
	return nil
}
