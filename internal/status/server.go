// Package status serves a read-only view of the drive over HTTP:
// a JSON snapshot at /api/status and a websocket at /api/ws that
// pushes a new snapshot on every state change. The server observes the
// controller through the app.EventEmitter interface and never touches
// the control path.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hwctl/stepperd/internal/app"
	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// Snapshot is the externally visible state of the drive.
type Snapshot struct {
	State     string `json:"state"`
	IsTurning bool   `json:"is_turning"`
	StepIndex int    `json:"step_index"`
	Steps     uint64 `json:"steps"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server implements app.EventEmitter and publishes snapshots to HTTP
// and websocket clients.
type Server struct {
	logger ports.Logger

	mu     sync.RWMutex
	cond   *sync.Cond
	snap   Snapshot
	seq    uint64
	closed bool
}

// NewServer creates a status server; wire it into the controller as
// its event emitter and serve its Handler.
func NewServer(logger ports.Logger) *Server {
	s := &Server{
		logger: logger,
		snap:   Snapshot{State: app.StateUninitialized.String()},
	}
	s.cond = sync.NewCond(s.mu.RLocker())
	return s
}

// OnStateChange records a lifecycle transition.
func (s *Server) OnStateChange(previous, current app.State, reason string) {
	s.mu.Lock()
	s.snap.State = current.String()
	s.seq++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// OnMotor records a motor state change.
func (s *Server) OnMotor(m domain.MotorSnapshot) {
	s.mu.Lock()
	s.snap.IsTurning = m.IsTurning
	s.snap.StepIndex = m.StepIndex
	if m.Steps > 0 {
		s.snap.Steps = m.Steps
	}
	s.seq++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Snapshot returns the current snapshot.
func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.statusHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/ws", s.socketHandler)
	return r
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		s.logger.Warn("could not encode status", ports.Err(err))
	}
}

func (s *Server) socketHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", ports.Err(err))
		return
	}
	defer conn.Close()

	// Drain incoming messages so a client close wakes the push loop.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				s.cond.Broadcast()
				return
			}
		}
	}()

	send := func(snap Snapshot) bool {
		data, err := json.Marshal(snap)
		if err != nil {
			s.logger.Warn("could not encode snapshot", ports.Err(err))
			return false
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return false
		}
		return true
	}

	s.mu.RLock()
	snap, last := s.snap, s.seq
	s.mu.RUnlock()
	if !send(snap) {
		return
	}

	for {
		s.mu.RLock()
		for s.seq == last && !s.closed && ctx.Err() == nil {
			s.cond.Wait()
		}
		snap, last = s.snap, s.seq
		closed := s.closed
		s.mu.RUnlock()

		if closed || ctx.Err() != nil {
			return
		}
		if !send(snap) {
			return
		}
	}
}

// ListenAndServe serves the status endpoints until the context is
// canceled, then shuts the listener down and unblocks every websocket
// push loop.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cond.Broadcast()
		srv.Shutdown(context.Background())
	}()

	s.logger.Info("status server listening", ports.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
