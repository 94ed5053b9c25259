package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dynsite/dynsite/internal/config"
)

func TestChatClientComplete(t *testing.T) {
	var captured capturedRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test-model",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"<h1>ok</h1>"}}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream.URL+"/v1/")
	out, err := client.Complete(context.Background(), Request{System: "sys", User: "usr", JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<h1>ok</h1>" {
		t.Fatalf("unexpected output %q", out)
	}
	if captured.Model != "test-model" || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request payload %+v", captured)
	}
	if captured.Messages[0].Role != "system" || string(captured.Messages[1].Content) != `"usr"` {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("JSON requests should set response_format")
	}
}

func TestChatClientNon200(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error","param":null,"code":"invalid_api_key"}}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(t, upstream.URL).Complete(context.Background(), Request{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestChatClientEmptyChoices(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-2","object":"chat.completion","created":1,"model":"test-model","choices":[]}`))
	}))
	defer upstream.Close()

	if _, err := newTestClient(t, upstream.URL).Complete(context.Background(), Request{}); err == nil {
		t.Fatalf("empty choices should fail")
	}
}

func TestChatClientPlainRequestHasNoResponseFormat(t *testing.T) {
	var captured capturedRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-3","object":"chat.completion","created":1,"model":"test-model",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"<p>x</p>"}}]}`))
	}))
	defer upstream.Close()

	if _, err := newTestClient(t, upstream.URL).Complete(context.Background(), Request{System: "s", User: "u"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.ResponseFormat != nil {
		t.Fatalf("plain requests should not set response_format, got %+v", captured.ResponseFormat)
	}
}

func TestChatClientMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-ambient")
	client := NewChatClient(nil, config.GeneratorConfig{APIBaseURL: "http://127.0.0.1:1", APIKeyEnv: "DYNSITE_UNSET_KEY"})
	if _, err := client.Complete(context.Background(), Request{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newTestClient(t *testing.T, baseURL string) *ChatClient {
	t.Helper()
	t.Setenv("DYNSITE_TEST_API_KEY", "sk-test")
	return NewChatClient(nil, config.GeneratorConfig{
		Model:      "test-model",
		APIBaseURL: baseURL,
		APIKeyEnv:  "DYNSITE_TEST_API_KEY",
	})
}
