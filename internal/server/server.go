// Package server is the HTTP front end: SSE and websocket session
// transports plus a health endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/gateway"
	"github.com/hattiebot/conduit/internal/health"
)

const keepAlive = 15 * time.Second

// Server serves the session transports and health endpoint.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	Hub             *gateway.Hub
	Health          *health.Registry
	Log             zerolog.Logger

	upgrader websocket.Upgrader
}

func New(cfg config.Server, hub *gateway.Hub, reg *health.Registry, log zerolog.Logger) *Server {
	return &Server{
		Addr:            cfg.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Hub:             hub,
		Health:          reg,
		Log:             log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST /messages", s.handleMessage)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Run listens on Addr until ctx is done, then closes every session and shuts
// the listener down gracefully. A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.Log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Log.Info().Int("sessions", s.Hub.Len()).Msg("shutting down")
	s.Hub.CloseAll()
	sctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type inbound struct {
	Text string `json:"text"`
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	conn := s.Hub.Open()
	defer s.Hub.Close(conn.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	writeEvent(w, "endpoint", []byte("/messages?sessionId="+conn.ID))
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case f := <-conn.Events():
			data, err := json.Marshal(f.Data)
			if err != nil {
				s.Log.Error().Err(err).Str("event", f.Event).Msg("encode event")
				continue
			}
			writeEvent(w, f.Event, data)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	conn, ok := s.Hub.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	var in inbound
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}
	switch err := conn.Submit(text); {
	case errors.Is(err, gateway.ErrInboxFull):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	case errors.Is(err, gateway.ErrClosed):
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()
	conn := s.Hub.Open()
	defer s.Hub.Close(conn.ID)

	// Only the writer goroutine touches ws for writing.
	rejects := make(chan gateway.Frame, 8)
	reject := func(msg string) {
		select {
		case rejects <- gateway.Frame{Event: gateway.EventError, Data: map[string]string{"error": msg}}:
		case <-conn.Done():
		}
	}
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var in inbound
			if err := json.Unmarshal(msg, &in); err != nil || strings.TrimSpace(in.Text) == "" {
				reject(`expected {"text": "..."}`)
				continue
			}
			if err := conn.Submit(strings.TrimSpace(in.Text)); err != nil {
				reject(err.Error())
			}
		}
	}()

	if err := ws.WriteJSON(gateway.Frame{Event: "session", Data: map[string]string{"id": conn.ID}}); err != nil {
		return
	}
	for {
		var f gateway.Frame
		select {
		case <-readDone:
			return
		case <-conn.Done():
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case f = <-rejects:
		case f = <-conn.Events():
		}
		if err := ws.WriteJSON(f); err != nil {
			s.Log.Debug().Err(err).Str("session_id", conn.ID).Msg("websocket write failed")
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.Health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusError {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
