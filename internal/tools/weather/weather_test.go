package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
)

func TestGetWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "en-us", r.URL.Query().Get("lang"))
		assert.Equal(t, "wk", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"current":{"temp_c":12.5,"temp_f":54.5,"condition":{"text":"Partly cloudy"}}}`))
	}))
	defer srv.Close()

	tool := New(config.Weather{APIKey: "wk", BaseURL: srv.URL}, srv.Client())
	out, err := tool.Handler(context.Background(), map[string]any{"location": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "The weather in Paris is Partly cloudy\nTemperature: 12.5°C (54.5°F)", out)
}

func TestGetWeather_UnknownCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tool := New(config.Weather{APIKey: "wk", BaseURL: srv.URL}, srv.Client())
	out, err := tool.Handler(context.Background(), map[string]any{"location": "Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, "The weather in Atlantis is unknown", out)
}

func TestGetWeather_MissingKey(t *testing.T) {
	tool := New(config.Weather{BaseURL: "http://unused"}, http.DefaultClient)
	_, err := tool.Handler(context.Background(), map[string]any{"location": "Paris"})
	var missing *core.MissingCredentialError
	require.True(t, errors.As(err, &missing))
}

func TestGetWeather_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key is invalid."}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	tool := New(config.Weather{APIKey: "bad", BaseURL: srv.URL}, srv.Client())
	_, err := tool.Handler(context.Background(), map[string]any{"location": "Paris"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}
