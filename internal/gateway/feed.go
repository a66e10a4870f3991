// Package gateway exposes the assistant's event stream over WebSocket so
// external front ends (a desktop overlay, a voice shell) can mirror state
// transitions and reminder notifications in real time.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberhq/valet/internal/bus"
	"github.com/emberhq/valet/internal/schema"
)

// event is the wire envelope for every feed message.
type event struct {
	Type         string            `json:"type"`
	State        string            `json:"state,omitempty"`
	Notification *bus.Notification `json:"notification,omitempty"`
}

// Feed fans the bus out to any number of WebSocket subscribers.
type Feed struct {
	events   *bus.Bus
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	last  schema.State
}

func NewFeed(events *bus.Bus) *Feed {
	return &Feed{
		events: events,
		upgrader: websocket.Upgrader{
			// Local-machine feed, not an internet-facing surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: map[*websocket.Conn]struct{}{},
		last:  schema.StateIdle,
	}
}

// Run serves /feed on the given port and pumps bus events to subscribers
// until ctx is cancelled.
func (f *Feed) Run(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", f.handleSubscribe)

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}

	go f.pump(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway feed listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (f *Feed) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	last := f.last
	f.mu.Unlock()

	// New subscribers immediately learn the current state.
	f.send(conn, event{Type: "state", State: string(last)})

	// Drain reads so close frames are processed; the feed is one-way.
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// pump forwards bus events to every subscriber.
func (f *Feed) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			return
		case s := <-f.events.States:
			f.mu.Lock()
			f.last = s
			f.mu.Unlock()
			f.broadcast(event{Type: "state", State: string(s)})
		case n := <-f.events.Notifications:
			f.broadcast(event{Type: "notification", Notification: &n})
		}
	}
}

func (f *Feed) broadcast(e event) {
	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for c := range f.conns {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		f.send(c, e)
	}
}

func (f *Feed) send(conn *websocket.Conn, e event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		f.drop(conn)
	}
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.conns[conn]; ok {
		delete(f.conns, conn)
		conn.Close()
	}
	f.mu.Unlock()
}

func (f *Feed) closeAll() {
	f.mu.Lock()
	for c := range f.conns {
		c.Close()
	}
	f.conns = map[*websocket.Conn]struct{}{}
	f.mu.Unlock()
}

// SubscriberCount reports how many feed connections are active.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}
