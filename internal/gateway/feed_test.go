package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberhq/valet/internal/bus"
	"github.com/emberhq/valet/internal/schema"
)

func startFeed(t *testing.T) (*Feed, *bus.Bus, string) {
	t.Helper()
	events := bus.New(16)
	feed := NewFeed(events)

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", feed.handleSubscribe)
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go feed.pump(ctx)

	return feed, events, "ws" + strings.TrimPrefix(s.URL, "http") + "/feed"
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return e
}

func TestFeed_SendsCurrentStateOnSubscribe(t *testing.T) {
	_, _, url := startFeed(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	e := readEvent(t, conn)
	if e.Type != "state" || e.State != string(schema.StateIdle) {
		t.Errorf("expected initial idle state, got %+v", e)
	}
}

func TestFeed_BroadcastsStateAndNotifications(t *testing.T) {
	feed, events, url := startFeed(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	readEvent(t, conn) // initial state

	waitSubscribers(t, feed, 1)

	events.SetState(schema.StateProcessing)
	e := readEvent(t, conn)
	if e.Type != "state" || e.State != string(schema.StateProcessing) {
		t.Errorf("expected processing state, got %+v", e)
	}

	events.Notify(bus.Notification{ReminderID: 7, Task: "stand up", FiredAt: time.Now()})
	e = readEvent(t, conn)
	if e.Type != "notification" || e.Notification == nil || e.Notification.ReminderID != 7 {
		t.Errorf("expected notification for reminder 7, got %+v", e)
	}
}

func TestFeed_DropsClosedSubscribers(t *testing.T) {
	feed, events, url := startFeed(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	readEvent(t, conn)
	waitSubscribers(t, feed, 1)

	conn.Close()

	// The first write after close can still land in the kernel buffer, so
	// keep publishing until the failed write evicts the subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && feed.SubscriberCount() > 0 {
		events.SetState(schema.StateSpeaking)
		time.Sleep(20 * time.Millisecond)
	}
	waitSubscribers(t, feed, 0)
}

func waitSubscribers(t *testing.T, feed *Feed, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if feed.SubscriberCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers, got %d", want, feed.SubscriberCount())
}
