package synth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tts-server-go/internal/domain/synth/inter"
	"tts-server-go/internal/platform/errors"
	"tts-server-go/internal/platform/logging"
)

type stubEngine struct {
	name string
}

func (e *stubEngine) Synthesize(_ context.Context, _ string, _ int, _ float64) (*inter.Result, error) {
	return &inter.Result{Samples: []float32{0.1, 0.2}, SampleRate: 16000}, nil
}

func (e *stubEngine) ModelName() string { return e.name }
func (e *stubEngine) Close() error      { return nil }

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(&logging.Config{
		Level:    "ERROR",
		Dir:      t.TempDir(),
		Filename: "test.log",
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestManager_SingleFlight(t *testing.T) {
	var builds atomic.Int32
	build := func(ctx context.Context) (inter.Engine, error) {
		builds.Add(1)
		time.Sleep(50 * time.Millisecond) // 拉长构造窗口，让并发调用者真正竞争
		return &stubEngine{name: "vits"}, nil
	}

	manager, err := NewManager(build, testLogger(t))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	const callers = 32
	engines := make([]inter.Engine, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			engine, err := manager.EnsureReady(context.Background())
			if err != nil {
				t.Errorf("caller %d: EnsureReady() error = %v", idx, err)
				return
			}
			engines[idx] = engine
		}(i)
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("build executed %d times, want exactly 1", got)
	}
	for i := 1; i < callers; i++ {
		if engines[i] != engines[0] {
			t.Errorf("caller %d received a different engine instance", i)
		}
	}
}

func TestManager_PermanentFailure(t *testing.T) {
	var builds atomic.Int32
	build := func(ctx context.Context) (inter.Engine, error) {
		builds.Add(1)
		return nil, errors.New(errors.KindSynth, "stub.build", "模型文件缺失")
	}

	manager, err := NewManager(build, testLogger(t))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := manager.EnsureReady(context.Background()); err == nil {
			t.Fatalf("call %d: expected cached construction error", i)
		}
	}

	if got := builds.Load(); got != 1 {
		t.Errorf("failed build retried %d times, want exactly 1 attempt", got)
	}
	if manager.Ready() {
		t.Error("Ready() should report false after failed construction")
	}
}

func TestManager_ReadyAfterSuccess(t *testing.T) {
	manager, err := NewManager(func(ctx context.Context) (inter.Engine, error) {
		return &stubEngine{name: "vits"}, nil
	}, testLogger(t))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if manager.Ready() {
		t.Error("Ready() should be false before first EnsureReady")
	}
	if _, err := manager.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady() error = %v", err)
	}
	if !manager.Ready() {
		t.Error("Ready() should be true after successful construction")
	}
}

func TestNewManager_NilBuild(t *testing.T) {
	if _, err := NewManager(nil, testLogger(t)); err == nil {
		t.Error("expected error for nil build func")
	}
}
