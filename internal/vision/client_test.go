package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sagliklab/tahlil/internal/render"
)

func testFragment() render.Fragment {
	return render.Fragment{
		PageIndex: 0,
		Crop:      render.CropTop,
		Detail:    render.DetailHigh,
		PNG:       []byte("not-a-real-png"),
	}
}

func successBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":     "test-id",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	})
	return body
}

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxRetries: maxRetries,
		RetryDelay: 5 * time.Millisecond,
	})
}

func TestClientInvoke(t *testing.T) {
	t.Run("successful extraction", func(t *testing.T) {
		var gotBody []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write(successBody(`{"sample_date":"2024-03-15","tests":{"Glukoz":{"value":95}}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 2)
		fr, err := client.Invoke(context.Background(), testFragment())
		if err != nil {
			t.Fatalf("Invoke() error = %v", err)
		}
		if fr == nil {
			t.Fatal("Invoke() returned nil result")
		}
		if fr.SampleDate != "2024-03-15" {
			t.Errorf("SampleDate = %q", fr.SampleDate)
		}
		if _, ok := fr.Tests["Glukoz"]; !ok {
			t.Error("Glukoz missing from parsed result")
		}

		// The fragment's detail level and the JSON response constraint must
		// ride along on the request.
		if !strings.Contains(string(gotBody), `"detail":"high"`) {
			t.Error("request missing high detail level")
		}
		if !strings.Contains(string(gotBody), `"json_object"`) {
			t.Error("request missing json_object response format")
		}
	})

	t.Run("retries transient status exactly maxRetries times", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("<html><body>upstream gateway sadness</body></html>"))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 2)
		_, err := client.Invoke(context.Background(), testFragment())
		if err == nil {
			t.Fatal("Invoke() error = nil, want failure after retries exhaust")
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("attempts = %d, want 3 (1 + 2 retries)", got)
		}
		// Raw upstream bodies must never leak into the error.
		if strings.Contains(err.Error(), "<html>") {
			t.Errorf("error leaks upstream body: %v", err)
		}
	})

	t.Run("zero retries means a single attempt", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"down"}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 0)
		if _, err := client.Invoke(context.Background(), testFragment()); err == nil {
			t.Fatal("Invoke() error = nil, want failure")
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("attempts = %d, want 1 with retries disabled", got)
		}
	})

	t.Run("negative retry count selects the default", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"down"}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, -1)
		if _, err := client.Invoke(context.Background(), testFragment()); err == nil {
			t.Fatal("Invoke() error = nil, want failure")
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("attempts = %d, want 3 (default 2 retries)", got)
		}
	})

	t.Run("does not retry non-transient status", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"image too large","type":"invalid_request_error"}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 2)
		_, err := client.Invoke(context.Background(), testFragment())
		if err == nil {
			t.Fatal("Invoke() error = nil, want hard failure")
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("attempts = %d, want 1 for non-transient status", got)
		}
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"rate limited"}}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(successBody(`{"sample_date":null,"tests":{"TSH":{"value":2.1}}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 2)
		fr, err := client.Invoke(context.Background(), testFragment())
		if err != nil {
			t.Fatalf("Invoke() error = %v, want recovery on final attempt", err)
		}
		if fr == nil || len(fr.Tests) != 1 {
			t.Errorf("result = %+v, want one test", fr)
		}
	})

	t.Run("unparseable content is a soft miss", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write(successBody("Sorry, I cannot read this image."))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 2)
		fr, err := client.Invoke(context.Background(), testFragment())
		if err != nil {
			t.Fatalf("Invoke() error = %v, want nil for unparseable content", err)
		}
		if fr != nil {
			t.Errorf("result = %+v, want nil", fr)
		}
	})
}
