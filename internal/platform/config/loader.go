package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// candidatePaths 配置文件查找顺序
var candidatePaths = []string{".config.yaml", "config.yaml"}

// Loader 负责启动时一次性读取配置：.env -> yaml 文件 -> 环境变量覆盖。
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader with the default search paths.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load 读取配置。找不到配置文件时回退到内置默认值。
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("未找到 .env 文件，使用系统环境变量")
		}
	}

	cfg := Default()
	path := "builtin:defaults"

	for _, candidate := range l.candidates() {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", candidate, err)
		}
		path = candidate
		break
	}

	applyEnvOverrides(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

func (l *Loader) candidates() []string {
	if l.path != "" {
		return []string{l.path}
	}
	return candidatePaths
}

// applyEnvOverrides 环境变量优先级最高，保持与旧版部署脚本兼容。
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODEL_DIR"); v != "" {
		cfg.Model.Dir = v
	}
	if v := os.Getenv("NUM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Model.NumThreads = n
		}
	}
	if v := os.Getenv("MAX_TEXT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Synth.MaxTextLength = n
		}
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}
	if cfg.Model.Dir == "" {
		return fmt.Errorf("模型目录不能为空")
	}
	if cfg.Synth.MaxTextLength <= 0 {
		return fmt.Errorf("无效的最大文本长度: %d", cfg.Synth.MaxTextLength)
	}
	if cfg.Output.Retention <= 0 {
		cfg.Output.Retention = time.Hour
	}
	if cfg.Output.CleanupInterval <= 0 {
		cfg.Output.CleanupInterval = 10 * time.Minute
	}
	return nil
}
