// Package feed streams scan events to websocket clients.
package feed

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/ekefan/afitlms-edgeserver/pkg/enroll"
	"github.com/ekefan/afitlms-edgeserver/pkg/msgs"
)

// Path is where the websocket endpoint is served.
const Path = "/scan"

// DefaultClientBacklog is the number of events queued per client.
const DefaultClientBacklog = 8

// Server broadcasts every finished scan as a JSON text message to all
// connected clients. A slow client misses events rather than slowing
// down others.
type Server struct {
	Addr          string
	DeviceID      string
	ClientBacklog int

	lock    sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	addr    string
	eventCh chan []byte
}

// NewServer creates a Server listening on addr.
func NewServer(addr, deviceID string) *Server {
	return &Server{Addr: addr, DeviceID: deviceID, ClientBacklog: DefaultClientBacklog}
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "feed"
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.clients)
}

// ScanFinished implements enroll.ScanObserver.
func (s *Server) ScanFinished(ctx context.Context, r *enroll.ScanReport) {
	ev, err := msgs.NewScanEvent(s.DeviceID, r)
	if err != nil {
		glog.Errorf("scan event: %v", err)
		return
	}
	data, err := ev.JSON()
	if err != nil {
		glog.Errorf("scan event %s: %v", ev.Id, err)
		return
	}
	s.Broadcast(data)
}

// Broadcast queues data to every client.
func (s *Server) Broadcast(data []byte) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for c := range s.clients {
		select {
		case c.eventCh <- data:
		default:
			glog.Warningf("feed client %s is slow, event dropped", c.addr)
		}
	}
}

// Handler returns the HTTP handler serving Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, websocket.Handler(s.serveConn))
	return mux
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("feed listening on %s", ln.Addr())
	srv := &http.Server{Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
		srv.Close()
		s.disconnectAll()
		return ctx.Err()
	}
}

func (s *Server) add(c *client) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.clients == nil {
		s.clients = make(map[*client]struct{})
	}
	s.clients[c] = struct{}{}
}

func (s *Server) remove(c *client) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.eventCh)
	}
}

func (s *Server) disconnectAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.eventCh)
	}
}

func (s *Server) serveConn(conn *websocket.Conn) {
	backlog := s.ClientBacklog
	if backlog <= 0 {
		backlog = DefaultClientBacklog
	}
	c := &client{addr: conn.Request().RemoteAddr, eventCh: make(chan []byte, backlog)}
	s.add(c)
	defer s.remove(c)
	glog.V(2).Infof("feed client %s connected", c.addr)
	defer glog.V(2).Infof("feed client %s disconnected", c.addr)

	// clients don't send anything, reading only detects the close.
	closedCh := make(chan struct{})
	go func() {
		defer close(closedCh)
		var msg []byte
		for websocket.Message.Receive(conn, &msg) == nil {
		}
	}()

	for {
		select {
		case data, ok := <-c.eventCh:
			if !ok {
				conn.Close()
				return
			}
			if err := websocket.Message.Send(conn, string(data)); err != nil {
				glog.V(2).Infof("feed client %s: %v", c.addr, err)
				return
			}
		case <-closedCh:
			return
		}
	}
}
