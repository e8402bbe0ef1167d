package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, map[string]int{"tick": 0})
	}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() Message {
		t.Helper()
		var msg Message
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	}

	// The hello is only written once the client is registered.
	if msg := read(); msg.Type != "hello" {
		t.Fatalf("first message type = %q, want hello", msg.Type)
	}
	if n := hub.Clients(ctx); n != 1 {
		t.Errorf("clients = %d, want 1", n)
	}

	hub.Publish("tick", map[string]int{"events_completed": 2})
	msg := read()
	if msg.Type != "tick" {
		t.Fatalf("message type = %q, want tick", msg.Type)
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok || payload["events_completed"] != float64(2) {
		t.Errorf("payload = %#v", msg.Payload)
	}
}
