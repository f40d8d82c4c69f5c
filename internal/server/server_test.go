package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/roteiro/config"
	"github.com/mohammad-safakhou/roteiro/internal/llm"
)

// countingProvider wraps another provider and counts capability calls.
type countingProvider struct {
	inner llm.Provider
	calls int
}

func (p *countingProvider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	p.calls++
	return p.inner.Generate(ctx, messages)
}

// brokenProvider always fails.
type brokenProvider struct{}

func (brokenProvider) Generate(context.Context, []llm.Message) (string, error) {
	return "", errors.New("capability unavailable")
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Provider:    "stub",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.2,
			Timeout:     5 * time.Second,
		},
		Server:    config.ServerConfig{Addr: ":0"},
		Telemetry: config.TelemetryConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T, provider llm.Provider) *Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	return New(testConfig(), provider, logger)
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateItineraryReturnsOrderedSections(t *testing.T) {
	s := newTestServer(t, llm.NewStubProvider())
	rec := postJSON(t, s, "/api/trip/itineraries",
		`{"destination":"Lisboa, Portugal","start_date":"2025-01-01","end_date":"2025-01-05"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.RunID == "" {
		t.Fatalf("expected a run id")
	}
	wantKeys := []string{"plan", "hotels", "leisure", "food", "final"}
	if len(resp.Sections) != len(wantKeys) {
		t.Fatalf("expected %d sections, got %d", len(wantKeys), len(resp.Sections))
	}
	for i, key := range wantKeys {
		if resp.Sections[i].Key != key {
			t.Fatalf("section %d is %s, expected %s", i, resp.Sections[i].Key, key)
		}
		if strings.TrimSpace(resp.Sections[i].Content) == "" {
			t.Fatalf("section %s has no content", key)
		}
	}
}

func TestCreateItineraryRejectsInvalidDatesBeforeAnyModelCall(t *testing.T) {
	provider := &countingProvider{inner: llm.NewStubProvider()}
	s := newTestServer(t, provider)
	rec := postJSON(t, s, "/api/trip/itineraries",
		`{"destination":"Lisboa, Portugal","start_date":"2025-01-05","end_date":"2025-01-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "end date") {
		t.Fatalf("expected the error to identify the failing condition: %s", rec.Body.String())
	}
	if provider.calls != 0 {
		t.Fatalf("expected zero capability calls, got %d", provider.calls)
	}
}

func TestCreateItineraryMapsStageFailure(t *testing.T) {
	s := newTestServer(t, brokenProvider{})
	rec := postJSON(t, s, "/api/trip/itineraries",
		`{"destination":"Lisboa, Portugal","start_date":"2025-01-01","end_date":"2025-01-05"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "planner") {
		t.Fatalf("expected the failing stage to be named: %s", rec.Body.String())
	}
}

func TestCreateStudyMaterialHonorsAnswerKeyToggle(t *testing.T) {
	s := newTestServer(t, llm.NewStubProvider())

	rec := postJSON(t, s, "/api/study/materials", `{"topic":"Compound interest"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp RunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Sections) != 3 {
		t.Fatalf("expected 3 sections without the toggle, got %d", len(resp.Sections))
	}

	rec = postJSON(t, s, "/api/study/materials", `{"topic":"Compound interest","answer_key":true}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Sections) != 4 || resp.Sections[3].Key != "answer_key" {
		t.Fatalf("expected the answer key section last, got %v", resp.Sections)
	}
}

func TestCreateStudyMaterialRejectsMissingTopic(t *testing.T) {
	provider := &countingProvider{inner: llm.NewStubProvider()}
	s := newTestServer(t, provider)
	rec := postJSON(t, s, "/api/study/materials", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if provider.calls != 0 {
		t.Fatalf("expected zero capability calls, got %d", provider.calls)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, llm.NewStubProvider())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}
