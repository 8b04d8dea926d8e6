package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// Defaults.
const (
	DefaultPath         = "/ws"
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxFrame     = 32 << 20
)

// Session is the per-connection chat state created by Config.NewSession.
type Session struct {
	Core *chatcore.Core

	// Release is called when the connection ends, before waiting for
	// outstanding turns. It should close the orchestrator so they settle.
	Release func()
}

// Config configures a Server.
type Config struct {
	// NewSession creates the chat state for a new connection. Required.
	NewSession func(ctx context.Context) (*Session, error)

	// Limits are applied to inline attachments. Defaults to
	// upload.CompactLimits.
	Limits upload.Limits

	// Path of the websocket endpoint. Defaults to DefaultPath.
	Path string

	// AllowedOrigins restricts browser origins. Empty allows all.
	AllowedOrigins []string

	// MaxFrame bounds a single client frame in bytes.
	MaxFrame int64

	Logger *slog.Logger
}

// Server bridges websocket connections to chat sessions.
type Server struct {
	newSession func(ctx context.Context) (*Session, error)
	limits     upload.Limits
	path       string
	maxFrame   int64
	upgrader   websocket.Upgrader
	log        *slog.Logger

	conns atomic.Int64
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.NewSession == nil {
		return nil, errors.New("server: NewSession is required")
	}
	s := &Server{
		newSession: cfg.NewSession,
		limits:     cfg.Limits,
		path:       cfg.Path,
		maxFrame:   cfg.MaxFrame,
		log:        cfg.Logger,
	}
	if s.limits.MaxBytes == 0 {
		s.limits = upload.CompactLimits
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	if s.maxFrame <= 0 {
		s.maxFrame = DefaultMaxFrame
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	origins := slices.Clone(cfg.AllowedOrigins)
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}
	return s, nil
}

// Connections returns the number of open websocket connections.
func (s *Server) Connections() int64 {
	return s.conns.Load()
}

// Handler returns the HTTP handler serving the websocket endpoint and
// GET /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("server listening", "addr", ln.Addr().String(), "path", s.path)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.conns.Load(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	ws.SetReadLimit(s.maxFrame)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess, err := s.newSession(ctx)
	if err != nil {
		s.log.Error("session setup failed", "remote", r.RemoteAddr, "error", err)
		_ = ws.WriteJSON(Response{Type: TypeError, Error: &ErrorBody{Code: "SESSION_ERROR", Message: chat.DefaultFallback}})
		_ = ws.Close()
		return
	}

	s.conns.Add(1)
	c := &conn{
		srv:  s,
		ws:   ws,
		core: sess.Core,
		log:  s.log.With("conn", uuid.NewString()[:8], "remote", r.RemoteAddr),
	}
	c.log.Info("client connected")

	c.serve(ctx)

	cancel()
	if sess.Release != nil {
		sess.Release()
	}
	_ = sess.Core.Close(context.Background())
	c.wg.Wait()
	_ = ws.Close()
	s.conns.Add(-1)
	c.log.Info("client disconnected")
}

// conn is one websocket client.
type conn struct {
	srv  *Server
	ws   *websocket.Conn
	core *chatcore.Core
	log  *slog.Logger

	wmu sync.Mutex
	wg  sync.WaitGroup
}

func (c *conn) serve(ctx context.Context) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read failed", "error", err)
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.send(Response{Type: TypeError, Error: &ErrorBody{Code: "BAD_REQUEST", Message: "invalid frame"}})
			continue
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		c.dispatch(ctx, req)
	}
}

func (c *conn) dispatch(ctx context.Context, req Request) {
	switch req.Type {
	case TypePing:
		c.send(Response{Type: TypePong, ID: req.ID})
	case TypeReset:
		c.core.Reset()
		c.send(Response{Type: TypeReset, ID: req.ID})
	case TypeSubmit:
		c.submit(req)
	case TypeTranscribe:
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.transcribe(ctx, req)
		}()
	default:
		c.send(Response{Type: TypeError, ID: req.ID, Error: &ErrorBody{Code: "BAD_REQUEST", Message: "unknown frame type " + req.Type}})
	}
}

func (c *conn) submit(req Request) {
	files := make([]upload.File, 0, len(req.Files))
	for _, inline := range req.Files {
		f := inline.file()
		if err := upload.Validate(f, c.srv.limits); err != nil {
			c.log.Warn("inline attachment rejected", "file", f.Name, "error", err)
			c.send(Response{Type: TypeError, ID: req.ID, Error: &ErrorBody{
				Code:    "VALIDATION_ERROR",
				Message: chatcore.DescribeError(err),
				File:    f.Name,
			}})
			return
		}
		files = append(files, f)
	}
	if rejected := c.core.SelectFiles(files); len(rejected) > 0 {
		for i := len(c.core.PendingFiles()) - 1; i >= 0; i-- {
			_ = c.core.RemoveFile(i)
		}
		c.send(Response{Type: TypeError, ID: req.ID, Error: &ErrorBody{
			Code:    "VALIDATION_ERROR",
			Message: chatcore.DescribeError(rejected[0].Err),
			File:    rejected[0].File.Name,
		}})
		return
	}

	p := c.core.Send(req.Text)
	c.send(Response{Type: TypeAck, ID: req.ID, TurnID: p.ID()})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-p.Done()
		reply, err := p.Result()
		if err != nil {
			c.send(Response{Type: TypeReply, ID: req.ID, TurnID: p.ID(), Text: chatcore.DescribeError(err), Error: &ErrorBody{
				Code:    chat.ErrorCode(err),
				Message: chatcore.DescribeError(err),
			}})
			return
		}
		c.send(Response{Type: TypeReply, ID: req.ID, TurnID: p.ID(), Text: reply.Text, Session: reply.ThreadID})
	}()
}

func (c *conn) transcribe(ctx context.Context, req Request) {
	text, err := c.core.Transcribe(ctx, &capture.Blob{Data: req.Audio, MIMEType: req.MIMEType})
	if err != nil {
		code := "TRANSCRIPTION_ERROR"
		if e, ok := transcribe.AsError(err); ok {
			code = string(e.Code)
		}
		c.send(Response{Type: TypeError, ID: req.ID, Error: &ErrorBody{Code: code, Message: chatcore.DescribeError(err)}})
		return
	}
	c.send(Response{Type: TypeTranscript, ID: req.ID, Text: text})
}

func (c *conn) send(resp Response) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout))
	if err := c.ws.WriteJSON(resp); err != nil {
		c.log.Debug("write failed", "type", resp.Type, "error", err)
	}
}
