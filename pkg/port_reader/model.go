package port_reader

import (
	"sync/atomic"
	"time"

	xencoding "golang.org/x/text/encoding"
)

// Conn is the part of a serial connection the reader uses.
// Read must return (0, nil) when nothing is available.
type Conn interface {
	Read(p []byte) (int, error)
	Close() error
	Name() string
}

type PortReader struct {
	conn         Conn
	decoder      *Decoder
	pollInterval time.Duration

	done          chan struct{}
	err           error
	bytesReceived atomic.Uint64
}

type Encoding string

const (
	EncodingASCII  Encoding = "ascii"
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin-1"
)

// Decoder turns received bytes into text. Not safe for concurrent use.
type Decoder struct {
	encoding Encoding
	// Incomplete utf-8 sequence left over from the previous read
	pending []byte
	latin1  *xencoding.Decoder
}
