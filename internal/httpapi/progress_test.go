package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"correctd/pkg/types"
)

func dialProgress(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForSubscribers(t *testing.T, hub *ProgressHub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("never reached %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestProgressHubBroadcast(t *testing.T) {
	hub := NewProgressHub()
	srv := httptest.NewServer(NewMux(&mockService{}, hub))
	defer srv.Close()

	conn := dialProgress(t, srv)
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	want := types.ProgressEvent{RequestID: "r1", Current: 2, Total: 5, Status: "processing"}
	hub.PublishProgress(want)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got types.ProgressEvent
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got != want {
		t.Fatalf("event = %+v, want %+v", got, want)
	}
}

func TestProgressHubDropsClosedClients(t *testing.T) {
	hub := NewProgressHub()
	srv := httptest.NewServer(NewMux(&mockService{}, hub))
	defer srv.Close()

	conn := dialProgress(t, srv)
	waitForSubscribers(t, hub, 1)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("closed client still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Publishing with no subscribers must not panic or block.
	hub.PublishProgress(types.ProgressEvent{RequestID: "r2", Current: 1, Total: 1})
}
