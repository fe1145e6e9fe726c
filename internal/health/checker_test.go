package health_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ErlanBelekov/charon/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestChecker(pg, rdb health.Pinger) (*health.Checker, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	deps := []health.Dependency{
		{Name: "postgres", Pinger: pg},
		{Name: "redis", Pinger: rdb},
	}
	return health.NewChecker(deps, slog.Default(), reg), reg
}

func TestLiveness_AlwaysUp(t *testing.T) {
	c, _ := newTestChecker(&mockPinger{err: errors.New("db down")}, &mockPinger{})

	result := c.Liveness(context.Background())
	if result.Status != "up" {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	if result.Checks != nil {
		t.Fatalf("expected no checks, got %v", result.Checks)
	}
}

func TestReadiness_AllUp(t *testing.T) {
	c, reg := newTestChecker(&mockPinger{}, &mockPinger{})

	result := c.Readiness(context.Background())
	if result.Status != "up" {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	for _, dep := range []string{"postgres", "redis"} {
		check, ok := result.Checks[dep]
		if !ok {
			t.Fatalf("missing %s check", dep)
		}
		if check.Status != "up" {
			t.Fatalf("expected %s up, got %s", dep, check.Status)
		}
		if g := testGauge(t, reg, "charon_health_check_up", dep); g != 1 {
			t.Fatalf("expected %s gauge 1, got %f", dep, g)
		}
	}
}

func TestReadiness_RedisDown(t *testing.T) {
	c, reg := newTestChecker(&mockPinger{}, &mockPinger{err: errors.New("connection refused")})

	result := c.Readiness(context.Background())
	if result.Status != "down" {
		t.Fatalf("expected status down, got %s", result.Status)
	}
	if result.Checks["postgres"].Status != "up" {
		t.Fatalf("postgres should still be up, got %s", result.Checks["postgres"].Status)
	}
	rdb := result.Checks["redis"]
	if rdb.Status != "down" {
		t.Fatalf("expected redis down, got %s", rdb.Status)
	}
	if rdb.Error == "" {
		t.Fatal("expected error message")
	}

	if g := testGauge(t, reg, "charon_health_check_up", "redis"); g != 0 {
		t.Fatalf("expected gauge 0, got %f", g)
	}
}

func TestReadiness_NoDependencies(t *testing.T) {
	c := health.NewChecker(nil, slog.Default(), prometheus.NewRegistry())

	if got := c.Readiness(context.Background()).Status; got != "up" {
		t.Fatalf("expected status up, got %s", got)
	}
}

func testGauge(t *testing.T, reg *prometheus.Registry, name, depLabel string) float64 {
	t.Helper()
	if n, err := testutil.GatherAndCount(reg, name); err != nil || n == 0 {
		t.Fatalf("metric %s not gathered (n=%d, err=%v)", name, n, err)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "dependency" && lp.GetValue() == depLabel {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{dependency=%q} not found", name, depLabel)
	return 0
}
