package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blane-next/internal/config"
)

type stubService struct {
	name     string
	startErr error
	block    bool

	mu      sync.Mutex
	stopped bool
	order   *[]string
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return nil
}

func TestRunnerStopsAllServicesInReverseOrderOnFailure(t *testing.T) {
	var order []string
	failing := &stubService{name: "worker", startErr: errors.New("boom"), order: &order}
	blocking := &stubService{name: "http", block: true, order: &order}
	runner := NewRunner(blocking, nil, failing)

	if got := runner.Names(); len(got) != 2 {
		t.Fatalf("nil services should be dropped, got %v", got)
	}
	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "worker: boom" {
		t.Fatalf("want wrapped start error, got %v", err)
	}
	if len(order) != 2 || order[0] != "worker" || order[1] != "http" {
		t.Fatalf("unexpected stop order: %v", order)
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	svc := &stubService{name: "scheduler", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancel should end cleanly, got %v", err)
	}
	if !svc.stopped {
		t.Fatalf("service should be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestBuildRunnerRejectsNilConfig(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if err := Run(Options{}); err == nil {
		t.Fatalf("run without config should fail")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestNormalizeOptionsUsesConfiguredShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeoutSeconds = 3
	opts := normalizeOptions(Options{Config: cfg, Mode: "bogus"})
	if opts.ShutdownTimeout != 3*time.Second {
		t.Fatalf("want 3s, got %s", opts.ShutdownTimeout)
	}
	if opts.Mode != ModeAll {
		t.Fatalf("unknown mode should fall back to all, got %s", opts.Mode)
	}
}
