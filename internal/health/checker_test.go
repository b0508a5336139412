package health

import (
	"context"
	"testing"
	"time"
)

type staticChecker struct {
	result CheckResult
}

func (s staticChecker) Check(context.Context) CheckResult {
	return s.result
}

func TestProbeRunnerReady(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		staticChecker{result: CheckResult{Name: "db", Healthy: true}},
		staticChecker{result: CheckResult{Name: "redis", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestProbeRunnerUnready(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		staticChecker{result: CheckResult{Name: "db", Healthy: true}},
		staticChecker{result: CheckResult{Name: "redis", Healthy: false, Error: "connection refused"}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestProbeRunnerStartupGrace(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 2*time.Second,
		staticChecker{result: CheckResult{Name: "db", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if ready {
		t.Fatal("expected unready during grace period")
	}
	if len(results) != 1 || results[0].Name != "startup_grace" {
		t.Fatalf("unexpected grace results: %+v", results)
	}
}

func TestProbeRunnerSkipsNilCheckers(t *testing.T) {
	runner := NewProbeRunner(200*time.Millisecond, 0,
		nil,
		staticChecker{result: CheckResult{Name: "db", Healthy: true}},
	)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(results) != 1 {
		t.Fatalf("expected nil checker to be dropped, got %d results", len(results))
	}
}

func TestNilProbeRunnerIsAlwaysReady(t *testing.T) {
	var runner *ProbeRunner
	ready, results := runner.Ready(context.Background())
	if !ready || results != nil {
		t.Fatalf("nil runner should report ready with no results, got %v %+v", ready, results)
	}
}
