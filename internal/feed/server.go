package feed

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server republishes feed updates to WebSocket clients so an external
// display can subscribe without touching the filesystem.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    *Update
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     allowWSOrigin,
}

func allowWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}

// NewServer creates an empty broadcast server.
func NewServer() *Server {
	return &Server{clients: make(map[*websocket.Conn]bool)}
}

// Handler returns the HTTP mux serving /ws/feed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/feed", s.handleFeedWS)
	return mux
}

func (s *Server) handleFeedWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	// A new subscriber immediately gets the latest known snapshot.
	if s.last != nil {
		_ = conn.WriteJSON(*s.last)
	}
	s.mu.Unlock()

	feedLog.Debug("feed_ws_client_connected", slog.String("remote", r.RemoteAddr))

	// Read loop exists only to observe the close; clients send nothing.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an update to every connected client, dropping clients
// whose writes fail.
func (s *Server) Broadcast(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &u
	for conn := range s.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(u); err != nil {
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
}

// ClientCount reports connected subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[conn] {
		delete(s.clients, conn)
		_ = conn.Close()
	}
}
