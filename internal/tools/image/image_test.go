package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/config"
)

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer ik", r.Header.Get("Authorization"))
		var req generationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, generationRequest{Model: "dall-e-3", Prompt: "Eiffel Tower at night", Size: "1024x1024", N: 1}, req)
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img/1.png","revised_prompt":"The Eiffel Tower lit up at night"}]}`))
	}))
	defer srv.Close()

	tool := New(config.Image{APIKey: "ik", BaseURL: srv.URL, Model: "dall-e-3", Size: "1024x1024"}, srv.Client())
	out, err := tool.Handler(context.Background(), map[string]any{"prompt": "Eiffel Tower at night"})
	require.NoError(t, err)
	assert.Equal(t, "Generated 1 image(s) for \"Eiffel Tower at night\":\n1. https://img/1.png\n   Revised prompt: The Eiffel Tower lit up at night", out)
}

func TestGenerateImage_SchemaRejectsBadSize(t *testing.T) {
	tool := New(config.Image{}, http.DefaultClient)
	err := tool.Def.InputSchema.Validate(map[string]any{"prompt": "x", "size": "10x10"})
	require.Error(t, err)
}

func TestGenerateImage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"content policy"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tool := New(config.Image{APIKey: "ik", BaseURL: srv.URL}, srv.Client())
	_, err := tool.Handler(context.Background(), map[string]any{"prompt": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content policy")
}
