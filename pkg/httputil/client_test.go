package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/sycamore/backend/pkg/config"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "test",
		LogLevel: "error", // Reduce log noise
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	client := New(cfg, logger.New(cfg))
	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", client.httpClient.Timeout)
	}

	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}
}

func TestNew_RemoteTimeoutFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Model.RemoteTimeout = 2 * time.Second

	client := New(cfg, logger.New(cfg))
	if client.httpClient.Timeout != 2*time.Second {
		t.Errorf("Expected timeout=2s, got %v", client.httpClient.Timeout)
	}
}

func TestNewWithTimeout(t *testing.T) {
	cfg := testConfig()
	client := NewWithTimeout(cfg, logger.New(cfg), 5*time.Second)

	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}
}

func TestWithRetryAndDisable(t *testing.T) {
	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).WithRetry(5, 2*time.Second)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}
	if client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay=2s, got %v", client.retryConfig.InitialDelay)
	}

	client.DisableRetry()
	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		w.Write([]byte(`{"version":"xgb-7","has_explainer":true}`))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg))

	var out struct {
		Version      string `json:"version"`
		HasExplainer bool   `json:"has_explainer"`
	}
	if err := client.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Version != "xgb-7" || !out.HasExplainer {
		t.Errorf("unexpected body %+v", out)
	}
}

func TestPostJSONInto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type=application/json, got %s", r.Header.Get("Content-Type"))
		}
		var in map[string][]float64
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprintf(w, `{"n":%d}`, len(in["rows"]))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg))

	var out struct {
		N int `json:"n"`
	}
	err := client.PostJSONInto(context.Background(), server.URL, map[string][]float64{"rows": {1, 2, 3}}, &out)
	if err != nil {
		t.Fatalf("PostJSONInto failed: %v", err)
	}
	if out.N != 3 {
		t.Errorf("Expected n=3, got %d", out.N)
	}
}

func TestJSONHelpers_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad row"))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).DisableRetry()

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, &out)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Body != "bad row" {
		t.Errorf("unexpected status error %+v", statusErr)
	}
}

func TestRetryOn5xx_ResendsBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"x":1}` {
			t.Errorf("attempt %d got body %q", atomic.LoadInt32(&attempts)+1, body)
		}
		if atomic.AddInt32(&attempts, 1) < 3 {
			// Return 503 for first 2 attempts
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).WithRetry(3, 10*time.Millisecond)

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]int{"x": 1})
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig()
	client := New(cfg, logger.New(cfg)).WithRetry(5, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Get(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected error after context cancellation")
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Errorf("retry loop ignored context cancellation")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			if got := IsRetryableError(tt.statusCode); got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}
