package cli

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/discovery"
)

func newDiscoverCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find a parley server on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := discoverServer(addr, timeout)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "239.255.70.80:9002", "Discovery group address")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "How long to wait for a reply")

	return cmd
}

// discoverServer sends a beacon to the group address and waits for the first
// acknowledgment.
func discoverServer(addr string, timeout time.Duration) (DiscoverResult, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("resolve %q: %w", addr, err)
	}

	// An unconnected socket, because the acknowledgment is unicast from the
	// server's own address rather than the group address.
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("open socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte(discovery.RequestToken), udpAddr); err != nil {
		return DiscoverResult{}, fmt.Errorf("send beacon: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return DiscoverResult{}, err
	}

	buf := make([]byte, 64)
	n, remote, err := conn.ReadFromUDP(buf)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("no server responded within %s", timeout)
	}
	if string(buf[:n]) != discovery.ResponseToken {
		return DiscoverResult{}, fmt.Errorf("unexpected reply from %s", remote)
	}

	return DiscoverResult{Addr: remote.IP.String()}, nil
}
