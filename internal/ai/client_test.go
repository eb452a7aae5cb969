package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newCountingServer(t *testing.T, statuses []int, okBody any, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(calls, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		w.WriteHeader(st)
		if st >= 200 && st < 300 {
			_ = json.NewEncoder(w).Encode(okBody)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "upstream failure"}})
	}))
}

func newTestClient(apiKey, baseURL string) *Client {
	c := NewClientWithBaseURL(apiKey, 2*time.Second, 3, 2*time.Second, baseURL)
	c.sleep = func(time.Duration) {}
	return c
}

func testRequest() CompletionRequest {
	return CompletionRequest{
		Model: "test-model",
		Messages: []Message{
			{Role: "system", Content: SystemPersona},
			{Role: "user", Content: "digest"},
		},
	}
}

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	var calls int32
	ok := CompletionResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "a story"}}}}
	srv := newCountingServer(t, []int{200}, ok, &calls)
	defer srv.Close()

	got, err := newTestClient("key", srv.URL).Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "a story" {
		t.Fatalf("content = %q, want %q", got, "a story")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ok := CompletionResponse{Choices: []Choice{{Message: Message{Content: "recovered"}}}}
	srv := newCountingServer(t, []int{500, 503, 200}, ok, &calls)
	defer srv.Close()

	got, err := newTestClient("key", srv.URL).Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("content = %q, want %q", got, "recovered")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := newCountingServer(t, []int{500}, nil, &calls)
	defer srv.Close()

	_, err := newTestClient("key", srv.URL).Complete(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want exactly 3 attempts", calls)
	}
}

func TestCompleteUsesFixedRetryDelay(t *testing.T) {
	var calls int32
	srv := newCountingServer(t, []int{500}, nil, &calls)
	defer srv.Close()

	c := NewClientWithBaseURL("key", 2*time.Second, 3, 2*time.Second, srv.URL)
	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }

	_, _ = c.Complete(context.Background(), testRequest())
	if len(delays) != 2 {
		t.Fatalf("sleeps = %d, want 2 (between 3 attempts)", len(delays))
	}
	for _, d := range delays {
		if d != 2*time.Second {
			t.Errorf("delay = %v, want fixed 2s", d)
		}
	}
}

func TestCompleteMissingAPIKeyMakesNoCall(t *testing.T) {
	var calls int32
	srv := newCountingServer(t, []int{200}, CompletionResponse{}, &calls)
	defer srv.Close()

	_, err := newTestClient("", srv.URL).Complete(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestCompleteLenientOnMissingFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty choices", `{"choices":[]}`},
		{"choice without message", `{"choices":[{}]}`},
		{"not json", `oops`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := newTestClient("key", srv.URL).Complete(context.Background(), testRequest())
			if err != nil {
				t.Fatalf("lenient parse should not error: %v", err)
			}
			if got != "" {
				t.Fatalf("content = %q, want empty", got)
			}
		})
	}
}

func TestCompleteRetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close() // connection refused from here on

	c := newTestClient("key", base)
	start := time.Now()
	_, err := c.Complete(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("stubbed sleep should keep retries fast, took %v", elapsed)
	}
}
