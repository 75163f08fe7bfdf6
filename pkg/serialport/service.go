package serialport

import (
	"errors"
	"fmt"
	"io"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"go.uber.org/zap"
)

// Open the connection to a serial port with the selected driver.
func Open(options Options) (*Connection, error) {
	opener, ok := openers[options.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, options.Driver)
	}

	port, eofIsTimeout, err := opener(options)
	if err != nil {
		logger.Get().Error("Connection failed",
			zap.String("port", options.PortName),
			zap.String("driver", string(options.Driver)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	conn := NewConnection(options.PortName, options.Driver, port, eofIsTimeout)
	logger.Get().Info("Connected to serial port",
		zap.String("port", options.PortName),
		zap.String("driver", string(options.Driver)),
		zap.Uint("baudrate", options.BaudRate))
	return conn, nil
}

// NewConnection wraps an already open port.
func NewConnection(name string, driver Driver, port io.ReadWriteCloser, eofIsTimeout bool) *Connection {
	c := &Connection{
		name:         name,
		driver:       driver,
		port:         port,
		eofIsTimeout: eofIsTimeout,
	}
	c.open.Store(true)
	return c
}

func (c *Connection) Name() string {
	return c.name
}

func (c *Connection) Driver() Driver {
	return c.driver
}

func (c *Connection) IsOpen() bool {
	return c.open.Load()
}

// Read returns whatever arrived within the read timeout, possibly nothing.
func (c *Connection) Read(p []byte) (int, error) {
	if !c.IsOpen() {
		return 0, ErrClosed
	}
	n, err := c.port.Read(p)
	if c.eofIsTimeout && errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (c *Connection) Write(p []byte) (int, error) {
	if !c.IsOpen() {
		return 0, ErrClosed
	}
	return c.port.Write(p)
}

// Close the port. Only the first call closes, later calls return the same result.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		c.closeErr = c.port.Close()
		logger.Get().Info("Disconnected from serial port", zap.String("port", c.name))
	})
	return c.closeErr
}
