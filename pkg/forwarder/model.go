package forwarder

type KeyReader interface {
	ReadKey() (byte, error)
}

type Conn interface {
	Write(p []byte) (int, error)
	IsOpen() bool
	Name() string
}

type StopReason string

const (
	StopSentinel         StopReason = "sentinel"
	StopInputClosed      StopReason = "input closed"
	StopConnectionClosed StopReason = "connection closed"
	StopWriteFailed      StopReason = "write failed"
)

// Forwarder sends keystrokes to the device one byte at a time.
type Forwarder struct {
	keys     KeyReader
	conn     Conn
	sentinel byte

	// Called after each byte reached the connection
	onSent func(key byte)
}
