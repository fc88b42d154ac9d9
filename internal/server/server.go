package server

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"siloso/internal/audio"
	"siloso/internal/guide"
	"siloso/pkg/audioconv"
	"siloso/pkg/protocol"
)

const maxFrame = 16 << 20

// NewSession builds an isolated session for one connection.
type NewSession func(id string) *guide.Session

// Server hosts the web surface: one websocket connection is one session.
type Server struct {
	addr       string
	newSession NewSession
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	server   *http.Server
	running  bool
	ctx      context.Context
	sessions map[string]*guide.Session
}

func New(addr string, newSession NewSession) *Server {
	s := &Server{
		addr:       addr,
		newSession: newSession,
		mux:        http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:      context.Background(),
		sessions: make(map[string]*guide.Session),
	}
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx = ctx
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Web surface listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Web surface failed", "err", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.Warn("Graceful shutdown failed, forcing close", "err", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

// Sessions reports the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) register(sess *guide.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrame)

	sess := s.newSession(uuid.NewString())
	s.register(sess)
	defer s.unregister(sess.ID())

	log.Info("Session opened", "session", sess.ID(), "remote", r.RemoteAddr)
	defer log.Info("Session closed", "session", sess.ID())

	ctx := s.baseContext()

	if err := write(conn, render(sess.View())); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !protocol.IsClosed(err) {
				log.Warn("Websocket read failed", "session", sess.ID(), "err", err)
			}
			return
		}

		var reply *protocol.Envelope
		if env, err := protocol.Parse(msg); err != nil {
			reply = protocol.Error(err.Error(), nil)
		} else {
			reply = Dispatch(ctx, sess, env)
		}

		if err := write(conn, reply); err != nil {
			log.Warn("Websocket write failed", "session", sess.ID(), "err", err)
			return
		}
	}
}

// Dispatch applies one surface action to the session and describes the
// next render.
func Dispatch(ctx context.Context, sess *guide.Session, env *protocol.Envelope) *protocol.Envelope {
	switch env.Kind {
	case protocol.KindCapture:
		return render(sess.Capture(clipOf(env)))

	case protocol.KindSend:
		view, err := sess.Send(ctx)
		if err != nil {
			return protocol.Error(err.Error(), view)
		}
		return render(view)

	case protocol.KindAsk:
		if len(env.Audio) == 0 {
			return protocol.Error(guide.ErrNoClip.Error(), sess.View())
		}
		sess.Capture(clipOf(env))
		view, err := sess.Send(ctx)
		if err != nil {
			return protocol.Error(err.Error(), view)
		}
		return render(view)

	case protocol.KindReset:
		return render(sess.Reset())

	case protocol.KindVoice:
		view, err := sess.SelectVoice(env.Content)
		if err != nil {
			return protocol.Error(err.Error(), view)
		}
		return render(view)

	case protocol.KindView:
		return render(sess.View())
	}

	return protocol.Error(fmt.Sprintf("unexpected kind %q", env.Kind), nil)
}

func clipOf(env *protocol.Envelope) audio.Clip {
	clip := audio.Clip{Data: env.Audio}
	if f, ok := audio.ParseFormat(env.Format); ok {
		clip.Format = f
	}
	return audioconv.Tag(clip)
}

func render(view guide.View) *protocol.Envelope {
	env, err := protocol.Render(view)
	if err != nil {
		return protocol.Error(err.Error(), nil)
	}
	return env
}

func write(conn *websocket.Conn, env *protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	open := len(s.sessions)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","running":%t,"sessions":%d}`, running, open)
}
