package terminal

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/forwarder"
	"github.com/NotCoffee418/serial_terminal/pkg/port_reader"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
)

// Conn is an open serial connection shared by the reader and the forwarder.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Name() string
	IsOpen() bool
}

type Options struct {
	Sentinel     byte
	PollInterval time.Duration
	Encoding     port_reader.Encoding
	// Printed to the console once both sides have stopped
	ExitMessage string
}

type Result struct {
	StopReason    forwarder.StopReason
	BytesSent     uint64
	BytesReceived uint64
}

// Session connects a keyboard and a console to one serial connection.
type Session struct {
	conn    Conn
	keys    forwarder.KeyReader
	options Options

	console   io.Writer
	consoleMu sync.Mutex

	receiveHandlers []func(chunk *types.Chunk)
	sendHandlers    []func(chunk *types.Chunk)
	readerErrorHook func(err error)

	bytesSent atomic.Uint64
}
