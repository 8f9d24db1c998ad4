package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseHandler(t *testing.T, frames []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, frame := range frames {
			_, err := io.WriteString(w, frame)
			require.NoError(t, err)
			flusher.Flush()
		}
	}
}

func TestAdapterSendStreams(t *testing.T) {
	var gotAuth string
	var gotBody openai.ChatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		sseHandler(t, []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n",
			"data: [DONE]\n",
		})(w, r)
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o", MaxTokens: 128})

	var streamed []string
	text, err := p.Send(context.Background(), Request{
		SystemPrompt: "be brief",
		Prompt:       "summarize",
		Content:      "the document",
	}, "sk-test", func(d string) { streamed = append(streamed, d) })

	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
	assert.Equal(t, []string{"Hello", " there"}, streamed)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotBody.Model)
	assert.True(t, gotBody.Stream)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "be brief", gotBody.Messages[0].Content)
	assert.Contains(t, gotBody.Messages[1].Content, "the document")
}

func TestAdapterEmptyKeyIsConfigError(t *testing.T) {
	p := NewOpenAI(Config{BaseURL: "http://localhost:1", Model: "gpt-4o"})
	_, err := p.Send(context.Background(), Request{Prompt: "x"}, "", nil)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "openai", cfgErr.Provider)
}

func TestAdapterHTTPErrorBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"type":"invalid_api_key","message":"Incorrect API key provided"}}`)
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o"})
	_, err := p.Send(context.Background(), Request{Prompt: "x"}, "sk-bad", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_api_key", apiErr.Code)
	assert.Equal(t, "Incorrect API key provided", apiErr.Message)
	assert.Contains(t, apiErr.Endpoint, "/chat/completions")
}

func TestAdapterTransportCloseEndsStream(t *testing.T) {
	// The candidate-array format has no sentinel; a clean close after the
	// last frame terminates the stream successfully.
	srv := httptest.NewServer(sseHandler(t, []string{
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"complete\"}]}}]}\n",
	}))
	defer srv.Close()

	p := NewGemini(Config{BaseURL: srv.URL, Model: "gemini-pro"})
	text, err := p.Send(context.Background(), Request{Prompt: "x"}, "key", nil)
	require.NoError(t, err)
	assert.Equal(t, "complete", text)
}

func TestAdapterKeepsPartialTextOnAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, rw, err := hj.Hijack()
		require.NoError(t, err)
		defer conn.Close()

		// Chunked response cut off mid-stream: the client sees an
		// unexpected EOF instead of a clean close.
		frame := "data: {\"choices\":[{\"delta\":{\"content\":\"partial text\"}}]}\n"
		rw.WriteString("HTTP/1.1 200 OK\r\n")
		rw.WriteString("Content-Type: text/event-stream\r\n")
		rw.WriteString("Transfer-Encoding: chunked\r\n\r\n")
		rw.WriteString(chunk(frame))
		rw.Flush()
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o"})
	text, err := p.Send(context.Background(), Request{Prompt: "x"}, "sk", nil)
	require.NoError(t, err, "partial output already delivered must be kept")
	assert.Equal(t, "partial text", text)
}

func TestAdapterAbortWithNoOutputIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, rw, err := hj.Hijack()
		require.NoError(t, err)
		defer conn.Close()

		rw.WriteString("HTTP/1.1 200 OK\r\n")
		rw.WriteString("Content-Type: text/event-stream\r\n")
		rw.WriteString("Transfer-Encoding: chunked\r\n\r\n")
		// Only an incomplete line; no delta ever completes.
		rw.WriteString(chunk("data: {\"choices\""))
		rw.Flush()
	}))
	defer srv.Close()

	p := NewOpenAI(Config{BaseURL: srv.URL, Model: "gpt-4o"})
	_, err := p.Send(context.Background(), Request{Prompt: "x"}, "sk", nil)
	assert.Error(t, err)
}

func TestAdapterProviderErrorWinsOverPartial(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"some text\"}}\n",
		"data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n",
	}))
	defer srv.Close()

	p := NewAnthropic(Config{BaseURL: srv.URL, Model: "claude-3-5-sonnet"})
	_, err := p.Send(context.Background(), Request{Prompt: "x"}, "key", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "anthropic", apiErr.Provider)
	assert.Equal(t, "overloaded_error", apiErr.Code)
}

// chunk encodes one HTTP/1.1 chunked-transfer chunk.
func chunk(s string) string {
	return fmt.Sprintf("%x\r\n%s\r\n", len(s), s)
}
