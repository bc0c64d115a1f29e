// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/concept-refinery/pkg/types"
)

func TestOpenAIBackendGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "deepseek-v3" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "- 光合作用\n- 细胞核"}},
			},
		})
	}))
	defer ts.Close()

	b := &OpenAIBackend{
		BackendID: "deepseek-v3",
		Model:     "deepseek-v3",
		BaseURL:   ts.URL,
		APIKey:    "sk-test",
		Client:    ts.Client(),
	}

	got, err := b.Generate(context.Background(), "extract concepts")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "- 光合作用\n- 细胞核" {
		t.Errorf("Generate = %q", got)
	}
}

func TestOpenAIBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantIn  string
	}{
		{
			name: "non-success status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "upstream overloaded", http.StatusBadGateway)
			},
			wantIn: "502",
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("not json"))
			},
			wantIn: "decoding",
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
			wantIn: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			b := &OpenAIBackend{BackendID: "judge", Model: "m", BaseURL: ts.URL, Client: ts.Client()}
			_, err := b.Generate(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantIn)
			}
		})
	}
}

func TestClientCompleteThroughHTTPBackend(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls <= 2 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- cell"}}]}`))
	}))
	defer ts.Close()

	b := &OpenAIBackend{BackendID: "judge", Model: "m", BaseURL: ts.URL, Client: ts.Client()}
	c := testClient(types.CompletionConfig{MaxRetries: 3}, b)

	got, err := c.Complete(context.Background(), "judge", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "- cell" {
		t.Errorf("Complete = %q", got)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}
