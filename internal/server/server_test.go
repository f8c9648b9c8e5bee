package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hattiebot/conduit/internal/agent"
	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
	"github.com/hattiebot/conduit/internal/gateway"
	"github.com/hattiebot/conduit/internal/health"
)

// scripted answers "fail" with a provider error, "weather" with one tool
// call, and anything else with an echo.
type scripted struct{}

func (scripted) Complete(_ context.Context, req core.CompletionRequest) (core.Completion, error) {
	last := req.Messages[len(req.Messages)-1]
	if len(last.Content) > 0 && last.Content[0].Type == core.BlockToolResult {
		return core.Completion{Content: []core.ContentBlock{core.TextBlock("It is " + last.Content[0].ToolResult.Text())}}, nil
	}
	switch text := last.Text(); text {
	case "fail":
		return core.Completion{}, errors.New("anthropic: HTTP 500: down")
	case "weather":
		call := core.ToolCallRequest{ID: "t1", Name: "get_weather", Arguments: map[string]any{"location": "Paris"}}
		return core.Completion{Content: []core.ContentBlock{{Type: core.BlockToolUse, ToolUse: &call}}}, nil
	default:
		return core.Completion{Content: []core.ContentBlock{core.TextBlock("echo: " + text)}}, nil
	}
}

type sunny struct{}

func (sunny) Execute(_ context.Context, call core.ToolCallRequest) core.ToolResult {
	return core.ToolResult{ID: call.ID, Content: []core.ContentBlock{core.TextBlock("sunny")}}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	loop := &agent.Loop{Client: scripted{}, Executor: sunny{}, Options: agent.Options{MaxTurns: 5}, Log: zerolog.Nop()}
	hub := gateway.NewHub(loop, 4, zerolog.Nop())
	reg := health.NewRegistry()
	reg.Register("sessions", hub)
	s := New(config.Server{ShutdownTimeout: time.Second}, hub, reg, zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hub.CloseAll()
		ts.Close()
	})
	return s, ts
}

type sseStream struct {
	r *bufio.Reader
}

func openSSE(t *testing.T, ctx context.Context, base string) (*sseStream, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	st := &sseStream{r: bufio.NewReader(resp.Body)}
	t.Cleanup(func() { _ = resp.Body.Close() })

	event, data := st.next(t)
	require.Equal(t, "endpoint", event)
	require.True(t, strings.HasPrefix(data, "/messages?sessionId="))
	return st, data
}

func (s *sseStream) next(t *testing.T) (event, data string) {
	t.Helper()
	var lines []string
	for {
		line, err := s.r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, strings.Join(lines, "\n")
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
}

func post(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func decodeEvent(t *testing.T, data string) agent.Event {
	t.Helper()
	var e agent.Event
	require.NoError(t, json.Unmarshal([]byte(data), &e))
	return e
}

func TestSSE_MessageFlow(t *testing.T) {
	_, ts := newTestServer(t)
	st, endpoint := openSSE(t, context.Background(), ts.URL)

	assert.Equal(t, http.StatusAccepted, post(t, ts.URL+endpoint, `{"text":"hello"}`))
	event, data := st.next(t)
	assert.Equal(t, "message", event)
	e := decodeEvent(t, data)
	assert.Equal(t, "echo: hello", e.Text)
	assert.True(t, e.Final)
}

func TestSSE_ToolEvents(t *testing.T) {
	_, ts := newTestServer(t)
	st, endpoint := openSSE(t, context.Background(), ts.URL)

	require.Equal(t, http.StatusAccepted, post(t, ts.URL+endpoint, `{"text":"weather"}`))

	event, data := st.next(t)
	assert.Equal(t, "tool_call", event)
	assert.Equal(t, "get_weather", decodeEvent(t, data).Call.Name)

	event, data = st.next(t)
	assert.Equal(t, "tool_result", event)
	assert.Equal(t, "t1", decodeEvent(t, data).Result.ID)

	event, data = st.next(t)
	assert.Equal(t, "message", event)
	assert.Equal(t, "It is sunny", decodeEvent(t, data).Text)
}

func TestSSE_ModelErrorDoesNotEndSession(t *testing.T) {
	_, ts := newTestServer(t)
	st, endpoint := openSSE(t, context.Background(), ts.URL)

	require.Equal(t, http.StatusAccepted, post(t, ts.URL+endpoint, `{"text":"fail"}`))
	event, data := st.next(t)
	assert.Equal(t, "error", event)
	assert.Contains(t, data, "model provider")

	require.Equal(t, http.StatusAccepted, post(t, ts.URL+endpoint, `{"text":"again"}`))
	event, data = st.next(t)
	assert.Equal(t, "message", event)
	assert.Equal(t, "echo: again", decodeEvent(t, data).Text)
}

func TestSSE_DisconnectClosesSession(t *testing.T) {
	s, ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	_, _ = openSSE(t, ctx, ts.URL)
	require.Equal(t, 1, s.Hub.Len())

	cancel()
	assert.Eventually(t, func() bool { return s.Hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMessages_BadRequests(t *testing.T) {
	_, ts := newTestServer(t)
	_, endpoint := openSSE(t, context.Background(), ts.URL)

	assert.Equal(t, http.StatusNotFound, post(t, ts.URL+"/messages?sessionId=nope", `{"text":"hi"}`))
	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+"/messages", `{"text":"hi"}`))
	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+endpoint, `{not json`))
	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+endpoint, `{"text":"   "}`))
}

func TestWebsocket_Flow(t *testing.T) {
	s, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, "session", hello.Event)
	_, ok := s.Hub.Get(hello.Data["id"])
	assert.True(t, ok)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`nope`)))
	var rejected struct {
		Event string `json:"event"`
	}
	require.NoError(t, ws.ReadJSON(&rejected))
	assert.Equal(t, "error", rejected.Event)

	require.NoError(t, ws.WriteJSON(map[string]string{"text": "hi"}))
	var reply struct {
		Event string      `json:"event"`
		Data  agent.Event `json:"data"`
	}
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, "message", reply.Event)
	assert.Equal(t, "echo: hi", reply.Data.Text)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report health.HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, health.StatusOK, report.Status)
	assert.Contains(t, report.Components, "sessions")
}

func TestRun_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s, _ := newTestServer(t)
	s.Addr = ln.Addr().String()
	assert.Error(t, s.Run(context.Background()))
}

func TestRun_GracefulShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	s.Addr = "127.0.0.1:0"
	s.Hub.Open()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, s.Hub.Len())
}
