package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/parley-chat/parley/internal/protocol"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Connect to the server's event channel and join with the saved token.

Typed lines are sent as chat messages. Lines starting with / are commands:
  /enter <room>   enter a room
  /leave <room>   leave a room
  /logout         end the session
  /quit           disconnect without logging out

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no session token; run 'parley login' first")
			}
			return runChat(cfg.Token)
		},
	}
}

func runChat(token string) error {
	conn, _, err := websocket.DefaultDialer.Dial(client.WebSocketURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventJoin,
		Token: token,
	}); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	// Print server events as they arrive
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev protocol.ServerEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			printEvent(ev)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-done:
			fmt.Println("disconnected")
			return nil
		case <-sigCh:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			ev, quit := parseLine(line)
			if quit {
				return nil
			}
			if ev == nil {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				return fmt.Errorf("failed to send: %w", err)
			}
			if ev.Event == protocol.EventLogout {
				return nil
			}
		}
	}
}

// parseLine turns an input line into a client event. A nil event with
// quit=false means the line was empty or malformed and should be skipped.
func parseLine(line string) (ev *protocol.ClientEvent, quit bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, false
	}

	if !strings.HasPrefix(trimmed, "/") {
		return &protocol.ClientEvent{Event: protocol.EventChat, Text: line}, false
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/enter":
		if len(fields) != 2 {
			fmt.Println("usage: /enter <room>")
			return nil, false
		}
		return &protocol.ClientEvent{Event: protocol.EventEnterRoom, Room: fields[1]}, false
	case "/leave":
		if len(fields) != 2 {
			fmt.Println("usage: /leave <room>")
			return nil, false
		}
		return &protocol.ClientEvent{Event: protocol.EventLeaveRoom, Room: fields[1]}, false
	case "/logout":
		return &protocol.ClientEvent{Event: protocol.EventLogout}, false
	case "/quit":
		return nil, true
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
		return nil, false
	}
}

func printEvent(ev protocol.ServerEvent) {
	switch ev.Event {
	case protocol.EventJoined:
		fmt.Printf("* %s joined\n", ev.Username)
	case protocol.EventEntered:
		fmt.Printf("* %s entered %s\n", ev.Username, ev.Room)
	case protocol.EventUsers:
		fmt.Printf("* users in %s: %s\n", ev.Room, strings.Join(ev.Users, ", "))
	case protocol.EventChat:
		fmt.Printf("<%s> %s\n", ev.Username, ev.Text)
	case protocol.EventLeft:
		fmt.Printf("* %s left\n", ev.Username)
	case protocol.EventLeftRoom:
		fmt.Printf("* %s left %s\n", ev.Username, ev.Room)
	case protocol.EventError:
		fmt.Printf("! error: %s\n", ev.Reason)
	default:
		fmt.Printf("? %s\n", ev.Event)
	}
}
