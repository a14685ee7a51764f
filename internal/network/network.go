package network

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codecat/go-enet"
)

// Server is the ENet datagram transport. Each connected peer is exposed as an
// Endpoint that stays stable for the lifetime of the connection.
type Server struct {
	host     enet.Host
	port     uint16
	maxPeers int
	logger   *slog.Logger

	mu    sync.Mutex
	peers map[string]*peerEndpoint
}

type peerEndpoint struct {
	server  *Server
	peer    enet.Peer
	address string
}

func (p *peerEndpoint) Address() string {
	return p.address
}

func (p *peerEndpoint) Send(data []byte) error {
	return p.server.SendPacket(p.peer, data)
}

func NewServer(port int, maxPeers int, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	return &Server{
		port:     uint16(port),
		maxPeers: maxPeers,
		logger:   logger,
		peers:    make(map[string]*peerEndpoint),
	}, nil
}

func (s *Server) Start() error {
	address := enet.NewListenAddress(s.port)

	var err error
	s.host, err = enet.NewHost(address, uint64(s.maxPeers), 1, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to create ENet host: %w", err)
	}

	s.logger.Info("enet transport started", "port", s.port, "max_peers", s.maxPeers)
	return nil
}

func (s *Server) Stop() {
	if s.host != nil {
		s.host.Destroy()
		s.host = nil
		s.logger.Info("enet transport stopped")
	}
}

func (s *Server) Service(timeout time.Duration) (*Event, error) {
	if s.host == nil {
		return nil, fmt.Errorf("server not started")
	}

	timeoutMs := uint32(timeout.Milliseconds())
	enetEvent := s.host.Service(timeoutMs)

	if enetEvent == nil {
		return &Event{Type: EventTypeNone}, nil
	}

	switch enetEvent.GetType() {
	case enet.EventConnect:
		ep := s.endpointFor(enetEvent.GetPeer())
		s.logger.Debug("peer connected", "peer", ep.address)
		return &Event{Type: EventTypeConnect, Endpoint: ep}, nil

	case enet.EventDisconnect:
		ep := s.endpointFor(enetEvent.GetPeer())
		s.forget(ep)
		s.logger.Debug("peer disconnected", "peer", ep.address)
		return &Event{Type: EventTypeDisconnect, Endpoint: ep}, nil

	case enet.EventReceive:
		event := &Event{
			Type:     EventTypeReceive,
			Endpoint: s.endpointFor(enetEvent.GetPeer()),
		}
		packet := enetEvent.GetPacket()
		if packet != nil {
			event.Data = packet.GetData()
			packet.Destroy()
		}
		return event, nil
	}

	return &Event{Type: EventTypeNone}, nil
}

func peerAddress(peer enet.Peer) string {
	addr := peer.GetAddress()
	return fmt.Sprintf("%s:%d", addr.String(), addr.GetPort())
}

func (s *Server) endpointFor(peer enet.Peer) *peerEndpoint {
	address := peerAddress(peer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ep, ok := s.peers[address]; ok {
		return ep
	}
	ep := &peerEndpoint{server: s, peer: peer, address: address}
	s.peers[address] = ep
	return ep
}

func (s *Server) forget(ep *peerEndpoint) {
	s.mu.Lock()
	delete(s.peers, ep.address)
	s.mu.Unlock()
}

func (s *Server) SendPacket(peer enet.Peer, data []byte) error {
	if peer == nil {
		return fmt.Errorf("peer is nil")
	}

	packet, err := enet.NewPacket(data, enet.PacketFlagReliable)
	if err != nil {
		return fmt.Errorf("failed to create packet: %w", err)
	}

	if err := peer.SendPacket(packet, 0); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	return nil
}

// Disconnect closes the connection behind ep once queued packets are flushed.
// Endpoints from other transports are ignored.
func (s *Server) Disconnect(ep Endpoint) {
	pe, ok := ep.(*peerEndpoint)
	if !ok || pe.server != s {
		return
	}
	pe.peer.DisconnectLater(0)
}

func (s *Server) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}
