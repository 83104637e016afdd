package testing

import (
	"path/filepath"
	"testing"

	"tts-server-go/internal/platform/config"
	"tts-server-go/internal/platform/logging"
)

// SetupTestConfig 返回指向临时目录的完整配置
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Level = "ERROR"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Output.Dir = t.TempDir()
	cfg.Output.DatabasePath = filepath.Join(t.TempDir(), "artifacts.db")

	return cfg
}

// SetupTestLogger 返回写入临时目录的安静日志器，测试结束自动关闭
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(&logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	return logger
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}
