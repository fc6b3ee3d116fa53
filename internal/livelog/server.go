// ABOUTME: WebSocket broadcast of the merged log stream to attached viewers
// ABOUTME: Slow or dead viewers are detached so the consumer never blocks

package livelog

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/harper/mcp-probe/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type viewer struct {
	id   string
	conn *websocket.Conn
	send chan string
}

// Server fans the aggregator's rendered lines out to websocket viewers.
type Server struct {
	mu      sync.RWMutex
	viewers map[string]*viewer
	ln      net.Listener
	httpSrv *http.Server
}

func NewServer() *Server {
	return &Server{viewers: make(map[string]*viewer)}
}

// Listen starts serving the /logs endpoint on the given port. Port 0
// picks a free port; Addr reports the bound address.
func (s *Server) Listen(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen for log viewers: %w", err)
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/logs", s.handleViewer)
	s.httpSrv = &http.Server{Handler: mux}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("live log server: %v", err)
		}
	}()

	logger.Info("live log stream on ws://%s/logs", ln.Addr())
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Close() error {
	s.mu.Lock()
	for id, v := range s.viewers {
		close(v.send)
		delete(s.viewers, id)
	}
	s.mu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("viewer upgrade failed: %v", err)
		return
	}

	v := &viewer{
		id:   uuid.New().String()[:8],
		conn: conn,
		send: make(chan string, 100),
	}

	s.mu.Lock()
	s.viewers[v.id] = v
	count := len(s.viewers)
	s.mu.Unlock()

	logger.Debug("viewer %s attached (%d total)", v.id, count)

	go s.writeLoop(v)

	// Viewers only receive; a read error means the viewer left.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.detach(v.id)
}

func (s *Server) writeLoop(v *viewer) {
	defer v.conn.Close()
	for line := range v.send {
		if err := v.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			s.detach(v.id)
			return
		}
	}
}

func (s *Server) detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.viewers[id]; ok {
		close(v.send)
		delete(s.viewers, id)
		logger.Debug("viewer %s detached (%d total)", id, len(s.viewers))
	}
}

// Broadcast delivers one rendered line to every attached viewer. A
// viewer whose buffer is full is detached rather than allowed to stall
// the log consumer.
func (s *Server) Broadcast(line string) {
	s.mu.RLock()
	var stalled []string
	for id, v := range s.viewers {
		select {
		case v.send <- line:
		default:
			stalled = append(stalled, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stalled {
		logger.Warn("viewer %s too slow, detaching", id)
		s.detach(id)
	}
}
