package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestHealthHandler_Health(t *testing.T) {
	t.Run("healthy when all checks pass", func(t *testing.T) {
		handler := NewHealthHandler(stubChecker{}, stubChecker{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("expected healthy, got %s", resp.Status)
		}
		if resp.Services["cache"] != "healthy" || resp.Services["chain_rpc"] != "healthy" {
			t.Errorf("unexpected services: %+v", resp.Services)
		}
	})

	t.Run("degraded when a check fails", func(t *testing.T) {
		handler := NewHealthHandler(stubChecker{err: errors.New("connection refused")}, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", w.Code)
		}

		var resp HealthResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Status != "degraded" {
			t.Errorf("expected degraded, got %s", resp.Status)
		}
	})

	t.Run("healthy with no checkers wired", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})
}

func TestHealthHandler_Probes(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("live", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Live(w, httptest.NewRequest(http.MethodGet, "/live", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})
}
