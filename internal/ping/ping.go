package ping

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
)

const (
	requestPing = "HELLO"
	requestLAN  = "HELLOLAN"
	replyPing   = "HI"
)

// Handler answers LAN discovery probes over UDP.
type Handler struct {
	conn          *net.UDPConn
	serverInfo    atomic.Pointer[ServerInfo]
	logger        *slog.Logger
	stopChan      chan struct{}
	listenAddress string
}

type ServerInfo struct {
	Name           string `json:"name"`
	PlayersCurrent int    `json:"players_current"`
	PlayersMax     int    `json:"players_max"`
	Map            string `json:"map"`
	GoldRemaining  int    `json:"gold_remaining"`
}

func NewHandler(address string, info *ServerInfo, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:        logger,
		stopChan:      make(chan struct{}),
		listenAddress: address,
	}
	h.serverInfo.Store(info)
	return h
}

func (h *Handler) Start() error {
	addr, err := net.ResolveUDPAddr("udp", h.listenAddress)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	h.conn = conn
	h.logger.Info("ping handler started", "address", conn.LocalAddr().String())

	go h.handlePackets()

	return nil
}

func (h *Handler) Stop() {
	close(h.stopChan)
	if h.conn != nil {
		h.conn.Close()
	}
	h.logger.Info("ping handler stopped")
}

func (h *Handler) Addr() net.Addr {
	if h.conn == nil {
		return nil
	}
	return h.conn.LocalAddr()
}

// UpdateServerInfo replaces the advertised snapshot. Safe to call while the
// handler is serving.
func (h *Handler) UpdateServerInfo(info *ServerInfo) {
	h.serverInfo.Store(info)
}

func (h *Handler) ServerInfo() *ServerInfo {
	return h.serverInfo.Load()
}

func (h *Handler) handlePackets() {
	buffer := make([]byte, 1024)

	for {
		n, addr, err := h.conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-h.stopChan:
				return
			default:
				h.logger.Error("failed to read UDP packet", "error", err)
				continue
			}
		}

		if reply := h.reply(buffer[:n]); reply != nil {
			if _, err := h.conn.WriteToUDP(reply, addr); err != nil {
				h.logger.Error("failed to send ping response", "error", err, "addr", addr)
				continue
			}
			h.logger.Debug("sent ping response", "addr", addr, "bytes", len(reply))
		}
	}
}

// reply returns the response to a probe, or nil for anything unrecognized.
func (h *Handler) reply(data []byte) []byte {
	switch string(data) {
	case requestPing:
		return []byte(replyPing)
	case requestLAN:
		jsonData, err := json.Marshal(h.serverInfo.Load())
		if err != nil {
			h.logger.Error("failed to marshal server info", "error", err)
			return nil
		}
		return jsonData
	default:
		return nil
	}
}
