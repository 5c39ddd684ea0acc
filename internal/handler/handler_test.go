package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"product-analyze-go/internal/logger"
	"product-analyze-go/internal/model"
)

type stubAnalyzer struct {
	result *model.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context) (*model.AnalysisResult, error) {
	return s.result, s.err
}

func (s *stubAnalyzer) AnalyzeWithProgress(ctx context.Context, onSection func(model.Section)) (*model.AnalysisResult, error) {
	if s.err != nil {
		onSection(model.SectionHead)
		return nil, s.err
	}
	for _, section := range model.AllSections {
		onSection(section)
	}
	return s.result, nil
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		Head:     "<table><tr><td>B001</td></tr></table>",
		Info:     "<class 'DataFrame'>",
		Missing:  model.NoMissingValuesHTML,
		Describe: "<table></table>",
		TopCategories: model.SeriesOf(
			model.Entry{Label: "Electronics", Value: 2},
			model.Entry{Label: "OfficeProducts", Value: 1},
		),
		AvgRatingCategories: model.SeriesOf(
			model.Entry{Label: "OfficeProducts", Value: 4.5},
			model.Entry{Label: "Electronics", Value: 4.1},
		),
		DiscountRatingInsight: "There is a weak negative correlation.",
	}
}

func newRouter(svc Analyzer) http.Handler {
	log := logger.Discard()
	return NewRouter(NewAnalysisHandler(svc, 0, log), NewReportHandler(svc, log))
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestAnalyzeReturnsResult(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{result: sampleResult()}), http.MethodGet, "/api/analyze")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got, err := model.DecodeResult(rec.Body)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	entries := got.AvgRatingCategories.Entries()
	if len(entries) != 2 || entries[0].Label != "OfficeProducts" {
		t.Errorf("avg rating order = %+v", entries)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		svc     *stubAnalyzer
		status  int
		message string
	}{
		{"service failure", http.MethodGet, &stubAnalyzer{err: errors.New("boom")}, http.StatusInternalServerError, "boom"},
		{"wrong method", http.MethodPost, &stubAnalyzer{result: sampleResult()}, http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(tt.svc), tt.method, "/api/analyze")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got != tt.message {
				t.Errorf("error = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestAnalyzeSSE(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{result: sampleResult()}), http.MethodGet, "/api/analyze/sse")
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	chunks := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	if want := len(model.AllSections) + 2; len(chunks) != want {
		t.Fatalf("frames = %d, want %d", len(chunks), want)
	}
	last := chunks[len(chunks)-1]
	if !strings.Contains(last, `"status":"completed"`) || !strings.Contains(last, `"overall":100`) {
		t.Errorf("final frame = %s", last)
	}
}

func TestAnalyzeSSEError(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{err: errors.New("boom")}), http.MethodGet, "/api/analyze/sse")
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"error"`) || !strings.Contains(body, `"error":"boom"`) {
		t.Errorf("body = %s", body)
	}
}

func TestChartPNG(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{result: sampleResult()}), http.MethodGet, "/api/charts/top_categories.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestChartErrors(t *testing.T) {
	empty := sampleResult()
	empty.AvgRatingCategories = model.NewSeries()

	tests := []struct {
		name   string
		svc    *stubAnalyzer
		target string
		status int
	}{
		{"unknown chart", &stubAnalyzer{result: sampleResult()}, "/api/charts/pie.png", http.StatusNotFound},
		{"empty series", &stubAnalyzer{result: empty}, "/api/charts/avg_rating_categories.png", http.StatusNotFound},
		{"service failure", &stubAnalyzer{err: errors.New("boom")}, "/api/charts/top_categories.png", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(tt.svc), http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if msg := decodeError(t, rec); msg == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{}), http.MethodGet, "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexServesIdlePage(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{}), http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `id="processButton"`) {
		t.Error("index page missing trigger")
	}

	if rec := serve(newRouter(&stubAnalyzer{}), http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestReportRendersResults(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{result: sampleResult()}), http.MethodGet, "/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"2 occurrences", "4.5 ★", "weak negative correlation", "B001"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestReportRendersErrorBanner(t *testing.T) {
	rec := serve(newRouter(&stubAnalyzer{err: errors.New("boom")}), http.MethodGet, "/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "An error occurred: boom") {
		t.Error("report missing error banner")
	}
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(0, 1)
	h := RateLimit(limiter, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if rec := serve(h, http.MethodGet, "/api/analyze"); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/analyze")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "rate limit exceeded" {
		t.Errorf("error = %q", got)
	}
}

func TestRequestLoggingAssignsID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := serve(h, http.MethodGet, "/health")
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc" {
		t.Errorf("incoming request id not kept: %q", seen)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(newRouter(&stubAnalyzer{}))
	rec := serve(h, http.MethodOptions, "/api/analyze")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
