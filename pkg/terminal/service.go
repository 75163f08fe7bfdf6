package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/NotCoffee418/serial_terminal/pkg/config"
	"github.com/NotCoffee418/serial_terminal/pkg/forwarder"
	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/port_reader"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"go.uber.org/zap"
)

// Options from the [terminal] section of a validated config.
func OptionsFromConfig(cfg *config.TerminalConfig) Options {
	return Options{
		Sentinel:     cfg.SentinelByte(),
		PollInterval: cfg.PollInterval(),
		Encoding:     port_reader.Encoding(cfg.Terminal.Encoding),
		ExitMessage:  cfg.Terminal.ExitMessage,
	}
}

// NewSession takes ownership of conn. It is closed by the time Run returns.
func NewSession(conn Conn, keys forwarder.KeyReader, console io.Writer, options Options) *Session {
	return &Session{
		conn:    conn,
		keys:    keys,
		console: console,
		options: options,
	}
}

// OnReceive registers a handler for device output, called after it was printed.
func (s *Session) OnReceive(handle func(chunk *types.Chunk)) {
	s.receiveHandlers = append(s.receiveHandlers, handle)
}

// OnSend registers a handler for every key that reached the device.
func (s *Session) OnSend(handle func(chunk *types.Chunk)) {
	s.sendHandlers = append(s.sendHandlers, handle)
}

// OnReaderError is called from the reader goroutine when reading or decoding fails.
// The forwarder keeps waiting for keys until it notices the closed connection.
func (s *Session) OnReaderError(handle func(err error)) {
	s.readerErrorHook = handle
}

// Run starts the port reader in the background and forwards keys on the calling goroutine.
// The reader is stopped only after the forwarder has returned, so the last key is written
// before the connection closes. Cancelling ctx stops the reader early.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	decoder, err := port_reader.NewDecoder(s.options.Encoding)
	if err != nil {
		s.conn.Close()
		return nil, err
	}

	logger.Get().Info("Session started",
		zap.String("port", s.conn.Name()),
		zap.String("sentinel", fmt.Sprintf("%q", s.options.Sentinel)))

	readerCtx, stopReader := context.WithCancel(ctx)
	defer stopReader()

	reader := port_reader.NewPortReader(s.conn, decoder, s.options.PollInterval)
	reader.StartReading(readerCtx, s.handleReceived, s.handleReaderError)

	fwd := forwarder.NewForwarder(s.keys, s.conn, s.options.Sentinel)
	fwd.OnSent(s.handleSent)
	reason, fwdErr := fwd.Run()

	stopReader()
	<-reader.Done()
	s.print(s.options.ExitMessage + "\n")

	result := &Result{
		StopReason:    reason,
		BytesSent:     s.bytesSent.Load(),
		BytesReceived: reader.BytesReceived(),
	}
	logger.Get().Info("Session ended",
		zap.String("port", s.conn.Name()),
		zap.String("reason", string(result.StopReason)),
		zap.Uint64("sent", result.BytesSent),
		zap.Uint64("received", result.BytesReceived))

	return result, errors.Join(fwdErr, reader.Err())
}

func (s *Session) handleReceived(chunk *types.Chunk) {
	s.print(chunk.Text)
	for _, handle := range s.receiveHandlers {
		handle(chunk)
	}
}

func (s *Session) handleSent(key byte) {
	s.bytesSent.Add(1)
	if len(s.sendHandlers) == 0 {
		return
	}
	chunk := types.NewTxChunk(s.conn.Name(), key)
	for _, handle := range s.sendHandlers {
		handle(chunk)
	}
}

func (s *Session) handleReaderError(err error) {
	if s.readerErrorHook != nil {
		s.readerErrorHook(err)
	}
}

func (s *Session) print(text string) {
	if text == "" {
		return
	}
	s.consoleMu.Lock()
	defer s.consoleMu.Unlock()
	if _, err := io.WriteString(s.console, text); err != nil {
		logger.Get().Warn("Failed to write to console", zap.Error(err))
	}
}
