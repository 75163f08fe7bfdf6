package serialport

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

type Driver string

const (
	DriverJacobsa Driver = "jacobsa"
	DriverTarm    Driver = "tarm"
	DriverBugst   Driver = "bugst"
)

type Parity string

const (
	ParityNone Parity = "none"
	ParityOdd  Parity = "odd"
	ParityEven Parity = "even"
)

var (
	ErrClosed        = errors.New("serial connection closed")
	ErrUnknownDriver = errors.New("unknown serial driver")
)

type Options struct {
	PortName    string
	Driver      Driver
	BaudRate    uint
	DataBits    uint
	StopBits    uint
	Parity      Parity
	ReadTimeout time.Duration
}

// Connection is an open serial port. Reads are bounded by the read timeout
// and return (0, nil) when nothing arrived in time.
type Connection struct {
	name   string
	driver Driver
	port   io.ReadWriteCloser

	// Driver reports an expired read timeout as io.EOF
	eofIsTimeout bool

	open      atomic.Bool
	closeOnce sync.Once
	closeErr  error
}
