package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, fragments []string, gotBody *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotBody != nil {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for i, frag := range fragments {
			chunk := map[string]any{
				"id":      "chatcmpl-test",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   "test-model",
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": frag}}},
			}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if i == 0 {
				// An empty delta must not reach the callback.
				fmt.Fprint(w, `data: {"id":"chatcmpl-test","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"role":"assistant"}}]}`+"\n\n")
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestGenerator(url string) *Generator {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = url + "/v1"
	return NewGeneratorWithConfig(cfg, "test-model", 100)
}

func TestGeneratorStreamsFragmentsInOrder(t *testing.T) {
	var body openai.ChatCompletionRequest
	srv := sseServer(t, []string{"===FILE:", "index.html===\n", "<p>hi</p>"}, &body)
	defer srv.Close()

	var got []string
	err := newTestGenerator(srv.URL).StreamText(context.Background(), StreamRequest{System: "sys", User: "usr"}, func(f string) error {
		got = append(got, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"===FILE:", "index.html===\n", "<p>hi</p>"}, got)

	assert.True(t, body.Stream)
	assert.Equal(t, "test-model", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, body.Messages[0].Role)
	assert.Equal(t, "usr", body.Messages[1].Content)
}

func TestGeneratorCallbackErrorStopsStream(t *testing.T) {
	srv := sseServer(t, []string{"a", "b", "c"}, nil)
	defer srv.Close()

	boom := errors.New("send failed")
	calls := 0
	err := newTestGenerator(srv.URL).StreamText(context.Background(), StreamRequest{}, func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestGeneratorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	err := newTestGenerator(srv.URL).StreamText(context.Background(), StreamRequest{}, func(string) error { return nil })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "openai chat completion stream failed"))
}
