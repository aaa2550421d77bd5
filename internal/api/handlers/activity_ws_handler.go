package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/utils"
)

// ActivityWSHandler streams activity events to browser tabs. The feed is
// one-way; client messages are read only to notice disconnects.
type ActivityWSHandler struct {
	feed     events.Subscriber
	upgrader websocket.Upgrader
}

func NewActivityWSHandler(feed events.Subscriber, allowedOrigins []string) *ActivityWSHandler {
	allow := map[string]bool{}
	for _, o := range allowedOrigins {
		allow[o] = true
	}
	return &ActivityWSHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allow["*"] || allow[origin]
			},
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *ActivityWSHandler) Stream(c *gin.Context) {
	if h.feed == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "ActivityWSHandler.Stream", "activity feed is not configured", nil))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	evs, unsubscribe, err := h.feed.Subscribe(ctx)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "ActivityWSHandler.Stream", "activity feed unavailable", err))
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()
	wc := &wsConn{c: conn}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	_ = wc.writeJSON(gin.H{"type": "ready"})
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			wc.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
			if err != nil {
				return
			}
		case ev, ok := <-evs:
			if !ok {
				return
			}
			if err := wc.writeJSON(gin.H{"type": "activity", "event": ev}); err != nil {
				return
			}
		}
	}
}
