package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
)

const (
	RoutePlay   = "/play"
	RouteStatus = "/status"

	wsSendBuffer   = 64
	wsReadLimit    = 4096
	wsWriteTimeout = 5 * time.Second
)

var ErrEndpointClosed = errors.New("endpoint closed")

// StatusFunc returns the value served as JSON on the status route.
type StatusFunc func() any

// Gateway accepts clients over WebSocket text frames. Every connection gets
// a random address and delivers its frames as events, like an ENet peer.
type Gateway struct {
	port     int
	router   *way.Router
	upgrader websocket.Upgrader
	status   StatusFunc
	events   chan Event
	quit     chan struct{}
	logger   *slog.Logger

	httpServer *http.Server
	listener   net.Listener
}

type wsEndpoint struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (e *wsEndpoint) Address() string {
	return "ws:" + e.id
}

func (e *wsEndpoint) Send(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEndpointClosed
	}

	msg := make([]byte, len(data))
	copy(msg, data)

	select {
	case e.send <- msg:
		return nil
	default:
		return fmt.Errorf("send buffer full for %s", e.Address())
	}
}

func (e *wsEndpoint) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.send)
	}
}

func NewGateway(port int, status StatusFunc, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		port:   port,
		status: status,
		events: make(chan Event, 256),
		quit:   make(chan struct{}),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  2048,
			WriteBufferSize: 2048,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	g.routes()
	return g
}

func (g *Gateway) routes() {
	g.router = way.NewRouter()
	g.router.HandleFunc("GET", RoutePlay, g.handlePlay())
	g.router.HandleFunc("GET", RouteStatus, g.handleStatus())
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Events delivers connect, receive and disconnect events from every client.
func (g *Gateway) Events() <-chan Event {
	return g.events
}

func (g *Gateway) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", g.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", g.port, err)
	}

	g.listener = listener
	g.httpServer = &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := g.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("websocket gateway stopped", "error", err)
		}
	}()

	g.logger.Info("websocket gateway started", "port", g.port)
	return nil
}

func (g *Gateway) Stop() {
	if g.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := g.httpServer.Shutdown(ctx); err != nil {
		g.logger.Warn("websocket gateway shutdown", "error", err)
	}
	g.httpServer = nil
	close(g.quit)
	g.logger.Info("websocket gateway stopped")
}

// Disconnect closes ep after its queued frames are written. Endpoints from
// other transports are ignored.
func (g *Gateway) Disconnect(ep Endpoint) {
	if we, ok := ep.(*wsEndpoint); ok {
		we.close()
	}
}

// emit hands an event to the consumer unless the gateway is shutting down.
func (g *Gateway) emit(event Event) bool {
	select {
	case g.events <- event:
		return true
	case <-g.quit:
		return false
	}
}

func (g *Gateway) handlePlay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		ep := &wsEndpoint{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, wsSendBuffer),
		}
		g.logger.Debug("websocket client connected", "endpoint", ep.Address(), "remote", r.RemoteAddr)

		go g.writer(ep)
		if !g.emit(Event{Type: EventTypeConnect, Endpoint: ep}) {
			ep.close()
			return
		}
		g.reader(ep)
	}
}

func (g *Gateway) reader(ep *wsEndpoint) {
	defer func() {
		ep.close()
		g.emit(Event{Type: EventTypeDisconnect, Endpoint: ep})
		g.logger.Debug("websocket client disconnected", "endpoint", ep.Address())
	}()

	ep.conn.SetReadLimit(wsReadLimit)
	for {
		msgType, data, err := ep.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("websocket read failed", "endpoint", ep.Address(), "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !g.emit(Event{Type: EventTypeReceive, Endpoint: ep, Data: data}) {
			return
		}
	}
}

func (g *Gateway) writer(ep *wsEndpoint) {
	defer ep.conn.Close()

	for msg := range ep.send {
		ep.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := ep.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			g.logger.Debug("websocket write failed", "endpoint", ep.Address(), "error", err)
			return
		}
	}

	ep.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.status == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(g.status()); err != nil {
			g.logger.Warn("failed to write status", "error", err)
		}
	}
}
