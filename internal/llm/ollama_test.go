package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/ad-scheduler/internal/errors"
)

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.Equal(t, "write a slogan", req.Prompt)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(map[string]any{"response": "```\nBuy now!\n```", "done": true})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, time.Second)
	text, err := client.Generate(context.Background(), ModelMistral, "write a slogan")
	require.NoError(t, err)
	assert.Equal(t, "Buy now!", text)
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'phi4' not found"}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, time.Second)
	_, err := client.Generate(context.Background(), ModelPhi4, "hi")

	var genErr *appErrors.ErrGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "phi4", genErr.Model)
	assert.Contains(t, err.Error(), "http 404")
	assert.Equal(t, appErrors.CodeGenerationError, appErrors.CodeOf(err))
}

func TestOllamaGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewOllamaClient(server.URL, 50*time.Millisecond)
	_, err := client.Generate(context.Background(), ModelLlama32, "slow")

	var timeout *appErrors.ErrGenerationTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 50*time.Millisecond, timeout.Timeout)
	assert.Equal(t, appErrors.CodeGenerationTimeout, appErrors.CodeOf(err))
}

func TestNewOllamaClientDefaults(t *testing.T) {
	client := NewOllamaClient("  ", 0)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultTimeout, client.timeout)
}
