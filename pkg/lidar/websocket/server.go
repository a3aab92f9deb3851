package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/msgs"
)

const (
	// DefaultWriteTimeout bounds sending one scan to a client.
	DefaultWriteTimeout = time.Second
	// DefaultQueueSize is the number of scans queued per client.
	DefaultQueueSize = 4
)

// Server broadcasts encoded scans to websocket clients as binary messages.
// Each client is written by its own goroutine, scans are dropped for a
// client whose queue is full.
type Server struct {
	WriteTimeout time.Duration
	QueueSize    int

	clientsLock sync.RWMutex
	clients     map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	addr    string
	sendCh  chan []byte
	dropped int
}

// NewServer creates a Server.
func NewServer() *Server {
	return &Server{
		WriteTimeout: DefaultWriteTimeout,
		QueueSize:    DefaultQueueSize,
		clients:      make(map[*client]struct{}),
	}
}

// Handler returns the http.Handler accepting websocket clients.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients)
}

// HandleScan implements lidar.ScanHandler. It never blocks on clients.
func (s *Server) HandleScan(ctx context.Context, scan *lidar.Scan) {
	payload, err := msgs.EncodeScan(scan)
	if err != nil {
		glog.Errorf("encode scan %d error: %v", scan.Revolution, err)
		return
	}
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	for c := range s.clients {
		select {
		case c.sendCh <- payload:
		default:
			c.dropped++
			glog.V(2).Infof("client %s backlogged, drop scan %d", c.addr, scan.Revolution)
		}
	}
}

// ListenAndServe serves websocket clients on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/scans", s.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	glog.Infof("websocket listening on %s", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

func (s *Server) serve(conn *websocket.Conn) {
	size := s.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	c := &client{
		conn:   conn,
		addr:   conn.Request().RemoteAddr,
		sendCh: make(chan []byte, size),
	}
	s.clientsLock.Lock()
	s.clients[c] = struct{}{}
	s.clientsLock.Unlock()
	glog.V(2).Infof("client %s connected", c.addr)
	go s.writeLoop(c)

	defer func() {
		s.clientsLock.Lock()
		delete(s.clients, c)
		close(c.sendCh)
		s.clientsLock.Unlock()
		glog.V(2).Infof("client %s disconnected", c.addr)
	}()
	// clients only receive, anything read is dropped.
	var msg []byte
	for {
		if err := websocket.Message.Receive(c.conn, &msg); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	timeout := s.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	var failed bool
	for payload := range c.sendCh {
		if failed {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := websocket.Message.Send(c.conn, payload); err != nil {
			glog.V(2).Infof("send to %s error: %v", c.addr, err)
			failed = true
			c.conn.Close()
		}
	}
}
