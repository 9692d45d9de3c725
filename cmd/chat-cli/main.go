// Command chat-cli is a terminal client for the chat server, mainly for
// manual testing of the realtime protocol.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"

	"github.com/codecommunity/chat-server/internal/auth"
	"github.com/codecommunity/chat-server/internal/realtime"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	token := flag.String("token", "", "bearer credential")
	devKey := flag.String("dev-key", "", "self-issue a token with this signing key (dev only)")
	devUser := flag.String("dev-user", "", "user id for self-issued token (dev only)")
	flag.Parse()

	cred := *token
	if cred == "" && *devKey != "" {
		id, err := uuid.FromString(*devUser)
		if err != nil {
			fail("bad --dev-user: %v", err)
		}
		cred, err = auth.NewVerifier([]byte(*devKey)).Issue(id, 24*time.Hour)
		if err != nil {
			fail("issue token: %v", err)
		}
	}
	if cred == "" {
		fail("either --token or --dev-key/--dev-user is required")
	}

	conn, _, err := websocket.DefaultDialer.Dial(*addr+"?token="+cred, nil)
	if err != nil {
		fail("dial %s: %v", *addr, err)
	}
	defer conn.Close()
	fmt.Println("connected; /to <user-id> picks a recipient, /read <user-id> marks read, /quit exits")

	go printLoop(conn)

	// Flag everything pending as delivered now that we are online.
	send(conn, realtime.EventMarkDelivered, nil)

	var recipient uuid.UUID
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/to "):
			id, err := uuid.FromString(strings.TrimSpace(line[4:]))
			if err != nil {
				fmt.Println("bad user id:", err)
				continue
			}
			recipient = id
			fmt.Println("recipient set to", recipient)
		case strings.HasPrefix(line, "/read "):
			id, err := uuid.FromString(strings.TrimSpace(line[6:]))
			if err != nil {
				fmt.Println("bad user id:", err)
				continue
			}
			send(conn, realtime.EventReadMessages, realtime.ReadMessagesPayload{FromUserID: id})
		default:
			if recipient == uuid.Nil {
				fmt.Println("pick a recipient first: /to <user-id>")
				continue
			}
			send(conn, realtime.EventSendMessage, realtime.SendMessagePayload{Receiver: recipient, Message: line})
		}
	}
}

func send(conn *websocket.Conn, name string, data any) {
	evt, err := realtime.NewEvent(name, data)
	if err != nil {
		fmt.Println("encode:", err)
		return
	}
	if err := conn.WriteJSON(evt); err != nil {
		fail("write: %v", err)
	}
}

func printLoop(conn *websocket.Conn) {
	for {
		var evt realtime.Event
		if err := conn.ReadJSON(&evt); err != nil {
			fail("connection lost: %v", err)
		}
		switch evt.Event {
		case realtime.EventReceiveMessage:
			var m struct {
				Sender  struct{ Name string } `json:"sender"`
				Message string                `json:"message"`
			}
			if err := json.Unmarshal(evt.Data, &m); err == nil {
				fmt.Printf("[%s] %s\n", m.Sender.Name, m.Message)
				continue
			}
			fallthrough
		default:
			fmt.Printf("<%s> %s\n", evt.Event, string(evt.Data))
		}
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
