package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestReadiness(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	h := NewHealthDependenciesHandler(map[string]Pinger{"postgres": ok, "redis": ok})
	c, rec := newContext(http.MethodGet, "/health/ready", "")
	_ = h.Readiness(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	h = NewHealthDependenciesHandler(map[string]Pinger{"postgres": ok, "redis": down})
	c, rec = newContext(http.MethodGet, "/health/ready", "")
	_ = h.Readiness(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	deps, _ := decode(t, rec)["dependencies"].(map[string]any)
	redis, _ := deps["redis"].(map[string]any)
	if redis["status"] != "unhealthy" {
		t.Fatalf("expected redis unhealthy, got %+v", deps)
	}
}
