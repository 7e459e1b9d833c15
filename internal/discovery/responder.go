// Package discovery answers LAN beacon queries so clients can locate a
// running server without configuration. The responder joins a well-known
// multicast group, waits for DISCOVER datagrams and unicasts OFFER back to
// each requester. It keeps no per-sender state.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
)

const (
	// RequestToken is the beacon request payload.
	RequestToken = "DISCOVER"
	// ResponseToken is the beacon acknowledgment payload.
	ResponseToken = "OFFER"
)

// Responder listens for discovery beacons on a UDP group address.
type Responder struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *net.UDPConn
	readyCh chan struct{}
}

func New(logger *slog.Logger) *Responder {
	return &Responder{
		logger:  logger.With(slog.String("component", "discovery")),
		readyCh: make(chan struct{}),
	}
}

// ListenAndServe binds the group address and answers beacons until Close is
// called. Multicast addresses are joined as a group; unicast addresses get a
// plain listener, which keeps tests off the multicast stack.
func (r *Responder) ListenAndServe(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", addr, err)
	}

	var conn *net.UDPConn
	if udpAddr.IP != nil && udpAddr.IP.IsMulticast() {
		conn, err = net.ListenMulticastUDP("udp", nil, udpAddr)
	} else {
		conn, err = net.ListenUDP("udp", udpAddr)
	}
	if err != nil {
		return fmt.Errorf("listen %q: %w", addr, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	r.logger.Info("discovery responder listening", slog.String("addr", conn.LocalAddr().String()))
	close(r.readyCh)

	buf := make([]byte, 1024)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			r.logger.Debug("discovery read error", slog.Any("error", err))
			continue
		}

		r.handleBeacon(conn, buf[:n], remote)
	}
}

func (r *Responder) handleBeacon(conn *net.UDPConn, payload []byte, remote *net.UDPAddr) {
	if string(payload) != RequestToken {
		r.logger.Debug("ignoring unknown beacon payload",
			slog.Int("len", len(payload)),
			slog.String("from", remote.String()))
		return
	}

	r.logger.Info("discovery beacon", slog.String("from", remote.String()))

	if _, err := conn.WriteToUDP([]byte(ResponseToken), remote); err != nil {
		r.logger.Debug("discovery reply failed",
			slog.String("to", remote.String()),
			slog.Any("error", err))
	}
}

// Ready returns a channel that is closed once the responder has bound its
// address.
func (r *Responder) Ready() <-chan struct{} {
	return r.readyCh
}

// Addr returns the bound address. Only valid after Ready fires.
func (r *Responder) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Close stops the responder. Safe to call before ListenAndServe has bound.
func (r *Responder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
