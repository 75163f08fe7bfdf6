package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func NewHub(port string) *Hub {
	return &Hub{
		port:      port,
		startedAt: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Read-only view, any origin may watch
			},
		},
		clients: make(map[*client]bool),
	}
}

// Handler serves `/`, `/latest` and `/ws`.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, statusResponse{
			Message: "Serial Terminal Mirror",
			Status:  "running",
			Port:    h.port,
			Clients: h.ClientCount(),
			Uptime:  time.Since(h.startedAt).Round(time.Second).String(),
		})
	})

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		tail := h.Latest()
		if tail == "" {
			writeJson(w, http.StatusNotFound, map[string]string{
				"error": "No output received yet",
			})
			return
		}
		writeJson(w, http.StatusOK, latestResponse{Port: h.port, Text: tail})
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Get().Warn("WebSocket upgrade error", zap.Error(err))
			return
		}

		c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}

		// Catch the viewer up with recent output first
		if tail := h.Latest(); tail != "" {
			c.send <- types.NewRxChunk(h.port, []byte(tail), tail).ToJsonBytes()
		}
		h.addClient(c)
		go h.writePump(c)

		// Keep connection alive until the viewer leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeClient(c)
				return
			}
		}
	})

	return mux
}

// Start listening on address. The server shuts down when ctx is cancelled.
func (h *Hub) Start(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start mirror on %s: %w", address, err)
	}
	h.listener = listener
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Get().Info("Mirror listening", zap.String("address", listener.Addr().String()))
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error("Mirror stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		h.Shutdown()
	}()
	return nil
}

// Addr is the bound address once Start succeeded.
func (h *Hub) Addr() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Shutdown stops the server and disconnects every viewer.
func (h *Hub) Shutdown() {
	if h.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			logger.Get().Warn("Mirror shutdown", zap.Error(err))
		}
	}

	h.clientsMutex.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMutex.RUnlock()
	for _, c := range clients {
		h.removeClient(c)
	}
}

// Broadcast queues chunk for every viewer. Never blocks on a slow viewer.
func (h *Hub) Broadcast(chunk *types.Chunk) {
	if chunk.Direction == types.DirectionRx {
		h.appendTail(chunk.Text)
	}
	message := chunk.ToJsonBytes()
	if message == nil {
		return
	}

	var slow []*client
	h.clientsMutex.RLock()
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			slow = append(slow, c)
		}
	}
	h.clientsMutex.RUnlock()

	for _, c := range slow {
		logger.Get().Warn("Mirror viewer too slow, disconnecting",
			zap.String("remote", c.conn.RemoteAddr().String()))
		h.removeClient(c)
	}
}

// Latest returns the most recent device output.
func (h *Hub) Latest() string {
	h.tailMutex.RLock()
	defer h.tailMutex.RUnlock()
	return string(h.tail)
}

func (h *Hub) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) appendTail(text string) {
	h.tailMutex.Lock()
	defer h.tailMutex.Unlock()
	h.tail = append(h.tail, text...)
	if over := len(h.tail) - tailSize; over > 0 {
		h.tail = append(h.tail[:0], h.tail[over:]...)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				c.conn.Close()
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.removeClient(c)
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.removeClient(c)
				c.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.clientsMutex.Lock()
	h.clients[c] = true
	h.clientsMutex.Unlock()
	logger.Get().Debug("Mirror viewer connected", zap.String("remote", c.conn.RemoteAddr().String()))
}

// Removing closes the send queue, the write pump then closes the socket.
func (h *Hub) removeClient(c *client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	logger.Get().Debug("Mirror viewer disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
