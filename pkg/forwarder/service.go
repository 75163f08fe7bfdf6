package forwarder

import (
	"errors"
	"fmt"
	"io"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"go.uber.org/zap"
)

func NewForwarder(keys KeyReader, conn Conn, sentinel byte) *Forwarder {
	return &Forwarder{
		keys:     keys,
		conn:     conn,
		sentinel: sentinel,
	}
}

// OnSent registers a callback for every forwarded byte. Must be set before Run.
func (f *Forwarder) OnSent(handle func(key byte)) {
	f.onSent = handle
}

// Run forwards keys until the sentinel is typed, input ends or the connection closes.
// The sentinel itself is never sent. A write or keyboard error stops the loop and is returned.
func (f *Forwarder) Run() (StopReason, error) {
	buf := make([]byte, 1)
	for f.conn.IsOpen() {
		key, err := f.keys.ReadKey()
		if errors.Is(err, io.EOF) {
			logger.Get().Debug("Input closed, stopping forwarder")
			return StopInputClosed, nil
		}
		if err != nil {
			return StopInputClosed, err
		}

		if key == f.sentinel {
			logger.Get().Debug("Sentinel received, stopping forwarder")
			return StopSentinel, nil
		}

		buf[0] = key
		if _, err := f.conn.Write(buf); err != nil {
			logger.Get().Error("Connection lost",
				zap.String("port", f.conn.Name()),
				zap.Error(err))
			return StopWriteFailed, fmt.Errorf("failed to write to serial port: %w", err)
		}
		if f.onSent != nil {
			f.onSent(key)
		}
	}

	logger.Get().Debug("Connection no longer open, stopping forwarder")
	return StopConnectionClosed, nil
}
