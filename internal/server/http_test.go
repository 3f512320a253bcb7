package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/calculator/internal/server"
)

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Type") != "application/json" {
		return rec.Code, nil
	}

	var v map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("json.Unmarshal: %v: %s", err, rec.Body.String())
	}
	return rec.Code, v
}

func TestCreateEvaluation(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name           string
		body           string
		expectedStatus int
		expectedResult map[string]any
		expectedTags   []any
	}{
		{
			name:           "expression",
			body:           `{"expression":"(4+5)*2"}`,
			expectedStatus: http.StatusOK,
			expectedResult: map[string]any{
				"value":    float64(18),
				"display":  "18",
				"tree":     "(( (4 + 5) ) * 2)",
				"consumed": float64(7),
			},
		},
		{
			name:           "tokens",
			body:           `{"tokens":[{"kind":"NUMBER","text":"5"},{"kind":"DIVIDE","text":"/"},{"kind":"NUMBER","text":"0"}]}`,
			expectedStatus: http.StatusOK,
			expectedResult: map[string]any{
				"value":    "Infinity",
				"display":  "Infinity",
				"tree":     "(5 / 0)",
				"consumed": float64(3),
			},
		},
		{
			name:           "syntax error",
			body:           `{"expression":"+1"}`,
			expectedStatus: http.StatusOK,
			expectedTags:   []any{"UnexpectedTokenError"},
		},
		{
			name:           "lex error",
			body:           `{"expression":"1+a"}`,
			expectedStatus: http.StatusOK,
			expectedTags:   []any{"LexError"},
		},
		{
			name:           "deep nesting",
			body:           `{"expression":"` + strings.Repeat("-", 100000) + `1"}`,
			expectedStatus: http.StatusOK,
			expectedTags:   []any{"RecursionError"},
		},
		{
			name:           "oversized body",
			body:           `{"expression":"` + strings.Repeat("-", 3000000) + `1"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"expression":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no input",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "both inputs",
			body:           `{"expression":"1","tokens":[{"kind":"NUMBER","text":"1"}]}`,
			expectedStatus: http.StatusBadRequest,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := server.NewHTTPHandler(nil)
			status, body := do(t, h, http.MethodPost, "/v1/evaluations", tt.body)
			if status != tt.expectedStatus {
				t.Fatalf("expect to status %d but got %d", tt.expectedStatus, status)
			}
			if status != http.StatusOK {
				return
			}

			if tt.expectedResult != nil {
				if diff := cmp.Diff(tt.expectedResult, body["result"]); diff != "" {
					t.Errorf("result mismatch (-want +got):\n%s", diff)
				}
			}
			if tt.expectedTags != nil {
				exception, ok := body["error"].(map[string]any)
				if !ok {
					t.Fatalf("expect to error object but got %v", body)
				}
				if diff := cmp.Diff(tt.expectedTags, exception["tags"]); diff != "" {
					t.Errorf("tags mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestListAndGetEvaluations(t *testing.T) {
	t.Parallel()

	h := server.NewHTTPHandler(nil)
	var names []string
	for _, body := range []string{`{"expression":"1+1"}`, `{"expression":"2^10"}`} {
		status, created := do(t, h, http.MethodPost, "/v1/evaluations", body)
		if status != http.StatusOK {
			t.Fatalf("expect to status 200 but got %d", status)
		}
		names = append(names, created["name"].(string))
	}

	status, list := do(t, h, http.MethodGet, "/v1/evaluations", "")
	if status != http.StatusOK {
		t.Fatalf("expect to status 200 but got %d", status)
	}
	evaluations, ok := list["evaluations"].([]any)
	if !ok || len(evaluations) != 2 {
		t.Fatalf("expect to 2 evaluations but got %v", list)
	}
	for i, v := range evaluations {
		if name := v.(map[string]any)["name"]; name != names[i] {
			t.Errorf("evaluations[%d]: expect to %s but got %v", i, names[i], name)
		}
	}

	status, got := do(t, h, http.MethodGet, names[1], "")
	if status != http.StatusOK {
		t.Fatalf("expect to status 200 but got %d", status)
	}
	if got["expression"] != "2^10" {
		t.Errorf("unexpected evaluation: %v", got)
	}
	if display := got["result"].(map[string]any)["display"]; display != "1024" {
		t.Errorf("expect to 1024 but got %v", display)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()

	h := server.NewHTTPHandler(nil)
	for _, tt := range []struct {
		method   string
		path     string
		expected int
	}{
		{method: http.MethodGet, path: "/", expected: http.StatusNotFound},
		{method: http.MethodGet, path: "/v1/evaluations/unknown", expected: http.StatusNotFound},
		{method: http.MethodGet, path: "/v1/evaluations/a/b", expected: http.StatusNotFound},
		{method: http.MethodDelete, path: "/v1/evaluations", expected: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/v1/evaluations/000000000001", expected: http.StatusMethodNotAllowed},
	} {
		status, _ := do(t, h, tt.method, tt.path, "")
		if status != tt.expected {
			t.Errorf("%s %s: expect to %d but got %d", tt.method, tt.path, tt.expected, status)
		}
	}
}
