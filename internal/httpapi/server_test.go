package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"correctd/pkg/types"
)

type mockService struct {
	status types.StatusResponse
	ready  bool
	result types.CorrectionResult

	lastReq types.CorrectionRequest
}

func (m *mockService) CorrectText(ctx context.Context, req types.CorrectionRequest) types.CorrectionResult {
	m.lastReq = req
	res := m.result
	if res.RequestID == "" {
		res.RequestID = "test-req"
	}
	return res
}
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func postCorrect(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/correct", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCorrectHandler(t *testing.T) {
	svc := &mockService{result: types.CorrectionResult{
		CorrectedText: "Fixed text.",
		Method:        types.MethodLLM,
		Level:         types.LevelBasic,
		ChunksTotal:   1,
	}}
	h := NewMux(svc, nil)
	w := postCorrect(t, h, `{"text":"fixed  text","level":"basic"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var res types.CorrectionResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.CorrectedText != "Fixed text." {
		t.Fatalf("corrected=%q", res.CorrectedText)
	}
	if svc.lastReq.Level != types.LevelBasic {
		t.Fatalf("service got level %q", svc.lastReq.Level)
	}
}

func TestCorrectRejectsWrongContentType(t *testing.T) {
	h := NewMux(&mockService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/correct", strings.NewReader("text"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCorrectRejectsInvalidBody(t *testing.T) {
	h := NewMux(&mockService{}, nil)
	cases := map[string]string{
		"bad json":      `{"text":`,
		"missing text":  `{"level":"basic"}`,
		"blank text":    `{"text":"   "}`,
		"unknown level": `{"text":"hi","level":"shouty"}`,
	}
	for name, body := range cases {
		if w := postCorrect(t, h, body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", name, w.Code)
		}
	}
}

func TestCorrectErrorPayloadShape(t *testing.T) {
	h := NewMux(&mockService{}, nil)
	w := postCorrect(t, h, `{"text":" "}`)
	var er types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != http.StatusBadRequest || er.Error == "" {
		t.Fatalf("payload=%+v", er)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{CorrectionsTotal: 7}}
	h := NewMux(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var res types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.CorrectionsTotal != 7 {
		t.Fatalf("corrections=%d", res.CorrectionsTotal)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz=%d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz not ready=%d", w.Code)
	}

	svc.ready = true
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz ready=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&mockService{}, nil)
	// Generate at least one sample before scraping.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "correctd_http_requests_total") {
		t.Fatalf("metrics body missing request counter")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	SetMaxBodyBytes(64)
	defer SetMaxBodyBytes(0)
	h := NewMux(&mockService{}, nil)
	big := `{"text":"` + strings.Repeat("a", 256) + `"}`
	if w := postCorrect(t, h, big); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body status=%d", w.Code)
	}
}
