package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// testTask is a controllable ExecutableTask for executor tests
type testTask struct {
	name    string
	enabled bool
	delay   time.Duration
	err     error
	ran     atomic.Bool
}

func (t *testTask) Name() string    { return t.name }
func (t *testTask) IsEnabled() bool { return t.enabled }

func (t *testTask) Execute(ctx context.Context) error {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.ran.Store(true)
	return t.err
}

func TestParallelExecutor_Execute(t *testing.T) {
	executor := NewParallelExecutor()
	tasks := []domain.ExecutableTask{
		&testTask{name: "lint", enabled: true},
		&testTask{name: "audit", enabled: true},
	}

	err := executor.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, task := range tasks {
		tt := task.(*testTask)
		if !tt.ran.Load() {
			t.Errorf("Task %s did not run", tt.name)
		}
	}
}

func TestParallelExecutor_SkipsDisabledTasks(t *testing.T) {
	executor := NewParallelExecutor()
	enabledTask := &testTask{name: "lint", enabled: true}
	disabledTask := &testTask{name: "audit", enabled: false}

	err := executor.Execute(context.Background(), []domain.ExecutableTask{enabledTask, disabledTask})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !enabledTask.ran.Load() {
		t.Error("Enabled task did not run")
	}
	if disabledTask.ran.Load() {
		t.Error("Disabled task should not have run")
	}
}

func TestParallelExecutor_EmptyTaskList(t *testing.T) {
	executor := NewParallelExecutor()
	if err := executor.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Expected no error for empty task list, got %v", err)
	}
}

func TestParallelExecutor_OneFailureDoesNotCancelSibling(t *testing.T) {
	executor := NewParallelExecutor()
	failing := &testTask{name: "lint", enabled: true, err: errors.New("tool crashed")}
	slow := &testTask{name: "audit", enabled: true, delay: 50 * time.Millisecond}

	err := executor.Execute(context.Background(), []domain.ExecutableTask{failing, slow})

	var aggregated *AggregatedError
	if !errors.As(err, &aggregated) {
		t.Fatalf("Expected AggregatedError, got %v", err)
	}
	if len(aggregated.Errors) != 1 {
		t.Fatalf("Expected 1 task error, got %d", len(aggregated.Errors))
	}
	if aggregated.Errors[0].TaskName != "lint" {
		t.Errorf("Expected lint task to be the failure, got %s", aggregated.Errors[0].TaskName)
	}
	if !slow.ran.Load() {
		t.Error("Sibling task should have completed despite the failure")
	}
}

func TestParallelExecutor_CollectsAllFailures(t *testing.T) {
	executor := NewParallelExecutor()
	tasks := []domain.ExecutableTask{
		&testTask{name: "lint", enabled: true, err: errors.New("first")},
		&testTask{name: "audit", enabled: true, err: errors.New("second")},
	}

	err := executor.Execute(context.Background(), tasks)

	var aggregated *AggregatedError
	if !errors.As(err, &aggregated) {
		t.Fatalf("Expected AggregatedError, got %v", err)
	}
	if len(aggregated.Errors) != 2 {
		t.Errorf("Expected 2 task errors, got %d", len(aggregated.Errors))
	}
}

func TestParallelExecutor_RespectsConcurrencyLimit(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{
		MaxGoroutines:  1,
		TimeoutSeconds: 10,
	})

	var mu sync.Mutex
	var active, peak int
	makeTask := func(name string) domain.ExecutableTask {
		return &countingTask{name: name, body: func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}}
	}

	tasks := []domain.ExecutableTask{makeTask("a"), makeTask("b"), makeTask("c")}
	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 1 {
		t.Errorf("Expected at most 1 concurrent task, observed %d", peak)
	}
}

type countingTask struct {
	name string
	body func()
}

func (t *countingTask) Name() string    { return t.name }
func (t *countingTask) IsEnabled() bool { return true }

func (t *countingTask) Execute(ctx context.Context) error {
	t.body()
	return nil
}

func TestParallelExecutor_Timeout(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{
		MaxGoroutines:  2,
		TimeoutSeconds: 1,
	})
	slow := &testTask{name: "slow", enabled: true, delay: 5 * time.Second}

	start := time.Now()
	err := executor.Execute(context.Background(), []domain.ExecutableTask{slow})
	elapsed := time.Since(start)

	if elapsed > 3*time.Second {
		t.Fatalf("Executor did not honor its timeout, took %v", elapsed)
	}
	var aggregated *AggregatedError
	if !errors.As(err, &aggregated) {
		t.Fatalf("Expected AggregatedError after timeout, got %v", err)
	}
}

func TestParallelExecutor_CancelledContextReportsSkippedTasks(t *testing.T) {
	executor := NewParallelExecutor()
	lint := &testTask{name: "lint", enabled: true}
	audit := &testTask{name: "audit", enabled: true}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Execute(ctx, []domain.ExecutableTask{lint, audit})

	var aggregated *AggregatedError
	if !errors.As(err, &aggregated) {
		t.Fatalf("Expected AggregatedError for a cancelled run, got %v", err)
	}
	if len(aggregated.Errors) != 2 {
		t.Fatalf("Expected both skipped tasks reported, got %d", len(aggregated.Errors))
	}
	for _, taskErr := range aggregated.Errors {
		if !errors.Is(taskErr.Err, context.Canceled) {
			t.Errorf("Task %s should carry the cancellation, got %v", taskErr.TaskName, taskErr.Err)
		}
	}
	if lint.ran.Load() || audit.ran.Load() {
		t.Error("Tasks must not execute under a done context")
	}
}

func TestParallelExecutorFromConfig_Defaults(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{})
	if executor.maxConcurrency != DefaultMaxConcurrency {
		t.Errorf("Expected default concurrency %d, got %d", DefaultMaxConcurrency, executor.maxConcurrency)
	}
	if executor.timeout != DefaultExecutorTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultExecutorTimeout, executor.timeout)
	}
}

func TestTaskErrorFormatting(t *testing.T) {
	taskErr := TaskError{TaskName: "lint", Err: errors.New("boom")}
	if taskErr.Error() != "[lint] boom" {
		t.Errorf("Unexpected format: %s", taskErr.Error())
	}

	aggregated := &AggregatedError{Errors: []TaskError{taskErr}}
	if aggregated.Error() != "[lint] boom" {
		t.Errorf("Single-error aggregate should format as the error itself, got %s", aggregated.Error())
	}
	if !errors.Is(aggregated, taskErr.Err) {
		t.Error("Aggregated error should unwrap to the first underlying error")
	}
}
