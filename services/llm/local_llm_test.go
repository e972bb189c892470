package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newLocalClientForServer(t *testing.T, handler http.HandlerFunc) *LocalLlamaCppClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("LLM_SERVICE_URL_BASE", server.URL)
	client, err := NewLocalLlamaCppClient()
	if err != nil {
		t.Fatalf("NewLocalLlamaCppClient failed: %v", err)
	}
	return client
}

func TestLocalLlamaCppClient_Generate(t *testing.T) {
	var captured localLlamaCppPayload
	client := newLocalClientForServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			t.Errorf("expected /completion, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode the payload: %v", err)
		}
		json.NewEncoder(w).Encode(llamaCppResp{Content: "a taxiway is a defined path"})
	})

	answer, err := client.Generate(context.Background(), "what is a taxiway", GenerationParams{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "a taxiway is a defined path" {
		t.Errorf("unexpected answer: %q", answer)
	}
	if captured.Prompt != "what is a taxiway" {
		t.Errorf("prompt not forwarded, got %q", captured.Prompt)
	}
	if captured.NPredict != 2048 {
		t.Errorf("expected default n_predict 2048, got %d", captured.NPredict)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.2 {
		t.Errorf("expected default temperature 0.2, got %v", captured.Temperature)
	}
}

func TestLocalLlamaCppClient_GenerateOverrides(t *testing.T) {
	var captured localLlamaCppPayload
	client := newLocalClientForServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(llamaCppResp{Content: "ok"})
	})

	maxTokens := 128
	temp := float32(0.7)
	_, err := client.Generate(context.Background(), "hi", GenerationParams{
		MaxTokens:   &maxTokens,
		Temperature: &temp,
		Stop:        []string{"###"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if captured.NPredict != 128 {
		t.Errorf("expected n_predict 128, got %d", captured.NPredict)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", captured.Temperature)
	}
	if len(captured.Stop) != 1 || captured.Stop[0] != "###" {
		t.Errorf("stop sequences not forwarded: %v", captured.Stop)
	}
}

func TestNewLocalLlamaCppClient_RequiresBaseURL(t *testing.T) {
	t.Setenv("LLM_SERVICE_URL_BASE", "")
	if _, err := NewLocalLlamaCppClient(); err == nil {
		t.Error("expected an error when LLM_SERVICE_URL_BASE is unset")
	}
}
