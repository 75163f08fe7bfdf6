package mirror

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Recent device output kept for /latest and new clients
	tailSize = 4096
	// Messages queued per client before it is dropped as too slow
	clientQueueSize = 256

	pingInterval  = 15 * time.Second
	readIdleLimit = 45 * time.Second
	writeTimeout  = 5 * time.Second
)

var ErrGaveUp = errors.New("mirror unreachable, giving up")

// Hub serves the live session to websocket clients.
type Hub struct {
	port      string
	startedAt time.Time
	upgrader  websocket.Upgrader

	clients      map[*client]bool
	clientsMutex sync.RWMutex

	tail      []byte
	tailMutex sync.RWMutex

	server   *http.Server
	listener net.Listener
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type statusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Port    string `json:"port"`
	Clients int    `json:"clients"`
	Uptime  string `json:"uptime"`
}

type latestResponse struct {
	Port string `json:"port"`
	Text string `json:"text"`
}
