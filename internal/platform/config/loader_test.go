package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	// 创建临时配置文件
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 8080
log:
  log_level: "DEBUG"
  log_dir: "/tmp/logs"
  log_file: "test.log"
model:
  dir: "/models/vits-melo-tts-zh_en"
  num_threads: 2
synth:
  max_text_length: 200
output:
  retention: "30m"
  cleanup_interval: "5m"
`

	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithDotEnv(false).WithPath(configFile)
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := result.Config

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Model.Dir != "/models/vits-melo-tts-zh_en" {
		t.Errorf("expected model dir override, got %s", cfg.Model.Dir)
	}
	if cfg.Synth.MaxTextLength != 200 {
		t.Errorf("expected max text length 200, got %d", cfg.Synth.MaxTextLength)
	}
	if cfg.Output.Retention != 30*time.Minute {
		t.Errorf("expected retention 30m, got %v", cfg.Output.Retention)
	}
	if cfg.Output.CleanupInterval != 5*time.Minute {
		t.Errorf("expected cleanup interval 5m, got %v", cfg.Output.CleanupInterval)
	}
	// 未覆盖的字段保留默认值
	if cfg.Synth.DefaultVolume != 1.5 {
		t.Errorf("expected default volume 1.5, got %f", cfg.Synth.DefaultVolume)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("expected default output dir, got %s", cfg.Output.Dir)
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	result, err := loader.Load()
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if result.Path != "builtin:defaults" {
		t.Errorf("expected builtin defaults, got %s", result.Path)
	}
	if result.Config.Server.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", result.Config.Server.Port)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("MODEL_DIR", "/opt/models/melo")
	t.Setenv("MAX_TEXT_LENGTH", "300")
	t.Setenv("NUM_THREADS", "8")

	loader := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if result.Config.Model.Dir != "/opt/models/melo" {
		t.Errorf("MODEL_DIR override not applied, got %s", result.Config.Model.Dir)
	}
	if result.Config.Synth.MaxTextLength != 300 {
		t.Errorf("MAX_TEXT_LENGTH override not applied, got %d", result.Config.Synth.MaxTextLength)
	}
	if result.Config.Model.NumThreads != 8 {
		t.Errorf("NUM_THREADS override not applied, got %d", result.Config.Model.NumThreads)
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "invalid server port",
			config: func() *Config {
				cfg := Default()
				cfg.Server.Port = 70000
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "empty model dir",
			config: func() *Config {
				cfg := Default()
				cfg.Model.Dir = ""
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "invalid max text length",
			config: func() *Config {
				cfg := Default()
				cfg.Synth.MaxTextLength = 0
				return cfg
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loader.validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_Validate_FillsDurations(t *testing.T) {
	cfg := Default()
	cfg.Output.Retention = 0
	cfg.Output.CleanupInterval = 0

	if err := NewLoader().validate(cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if cfg.Output.Retention != time.Hour {
		t.Errorf("expected retention fallback 1h, got %v", cfg.Output.Retention)
	}
	if cfg.Output.CleanupInterval != 10*time.Minute {
		t.Errorf("expected cleanup interval fallback 10m, got %v", cfg.Output.CleanupInterval)
	}
}
