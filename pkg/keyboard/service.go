package keyboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"go.uber.org/zap"
)

// Open switches standard input to raw mode: no echo, no line buffering.
// When stdin is not a terminal, keys are read from it as plain bytes.
// Call Restore before the process exits.
func Open() (*Keyboard, error) {
	fd := os.Stdin.Fd()
	if !isTerminal(fd) {
		logger.Get().Debug("Standard input is not a terminal, reading plain bytes")
		return NewReader(os.Stdin), nil
	}

	restore, err := makeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to switch terminal to raw mode: %w", err)
	}
	logger.Get().Debug("Terminal switched to raw mode")
	return &Keyboard{in: os.Stdin, restore: restore}, nil
}

// NewReader reads keys from any byte source without touching terminal settings.
func NewReader(in io.Reader) *Keyboard {
	return &Keyboard{in: in}
}

// ReadKey blocks until one key is available. Returns io.EOF once input is closed.
func (k *Keyboard) ReadKey() (byte, error) {
	for {
		n, err := k.in.Read(k.buf[:])
		if n == 1 {
			return k.buf[0], nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("failed to read key: %w", err)
		}
	}
}

// Restore the original terminal settings. Safe to call more than once.
func (k *Keyboard) Restore() error {
	k.restoreOnce.Do(func() {
		if k.restore == nil {
			return
		}
		k.restoreErr = k.restore()
		if k.restoreErr != nil {
			logger.Get().Warn("Failed to restore terminal settings", zap.Error(k.restoreErr))
			return
		}
		logger.Get().Debug("Terminal settings restored")
	})
	return k.restoreErr
}
