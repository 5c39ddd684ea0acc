package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"product-analyze-go/internal/logger"
	"product-analyze-go/internal/model"
)

const okBody = `{"head":"<table></table>","info":"info","missing":"","describe":"<table></table>",
"top_categories":{"A":10,"B":20},"avg_rating_categories":{"B":4.5,"A":4.1},
"discount_rating_insight":"insight"}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithLogger(logger.Discard()))
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AnalyzePath || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotID = r.Header.Get(RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	})

	result, err := c.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if gotID == "" {
		t.Error("request id header not sent")
	}
	if v, _ := result.TopCategories.Get("B"); v != 20 {
		t.Errorf("B = %v, want 20", v)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusBadRequest, `{"error": "bad request"}`, "bad request"},
		{"no error field", http.StatusInternalServerError, `{}`, "HTTP error! Status: 500"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP error! Status: 502"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := c.Analyze(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Analyze() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tc.status)
			}
			if apiErr.Message != tc.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tc.wantMsg)
			}
		})
	}
}

func TestAnalyzeMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head": "<table></table>"}`))
	})

	_, err := c.Analyze(context.Background())
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Analyze() error = %v, want *model.ValidationError", err)
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithLogger(logger.Discard()))
	_, err := c.Analyze(context.Background())
	if err == nil {
		t.Fatal("Analyze() error = nil")
	}
	if !strings.Contains(err.Error(), "request analysis") {
		t.Errorf("error %q should describe the failed request", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("transport failure should not be an APIError")
	}
}
