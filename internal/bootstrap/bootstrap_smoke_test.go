package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	platformconfig "tts-server-go/internal/platform/config"
	platformerrors "tts-server-go/internal/platform/errors"
)

func testState(t *testing.T) *appState {
	t.Helper()
	cfg := platformconfig.Default()
	cfg.Log.Level = "ERROR"
	cfg.Log.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.DatabasePath = filepath.Join(t.TempDir(), "artifacts.db")
	return &appState{config: cfg, configPath: "builtin:defaults"}
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-database",
		"model:init-manager",
		"model:preload",
		"artifact:init-store",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitSteps_CoreSteps(t *testing.T) {
	state := testState(t)

	steps := []initStep{
		{ID: "logging:init-provider", Kind: platformerrors.KindBootstrap, Execute: initLoggingStep},
		{ID: "observability:setup-hooks", Kind: platformerrors.KindBootstrap, Execute: setupObservabilityStep},
		{ID: "storage:init-database", Kind: platformerrors.KindStorage, Execute: initDatabaseStep},
		{ID: "artifact:init-store", Kind: platformerrors.KindStorage, Execute: initStoreStep},
	}
	if err := executeInitSteps(context.Background(), steps, state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}

	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.db == nil {
		t.Fatal("database is nil after init")
	}
	if state.store == nil {
		t.Fatal("artifact store is nil after init")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
	defer state.logger.Close()
	defer state.observabilityShutdown(context.Background())
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "needs-missing",
			DependsOn: []string{"never-ran"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if !strings.Contains(err.Error(), "never-ran") {
		t.Fatalf("error should name the missing dependency: %v", err)
	}
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	state := testState(t)
	state.config.Log.Level = "INFO"
	state.config.Log.File = "graph.log"

	if err := initLoggingStep(context.Background(), state); err != nil {
		t.Fatalf("init logging: %v", err)
	}

	logBootstrapGraph(InitGraph(), state.logger)
	state.logger.Close()

	data, err := os.ReadFile(filepath.Join(state.config.Log.Dir, state.config.Log.File))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "初始化依赖关系概览") {
		t.Fatalf("graph header missing in log output: %s", content)
	}
	for _, id := range []string{
		"config:load",
		"model:preload",
		"artifact:init-store",
	} {
		if !strings.Contains(content, id) {
			t.Fatalf("expected graph output to contain %q, got: %s", id, content)
		}
	}
}
