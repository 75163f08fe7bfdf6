package port_reader

import (
	"context"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"go.uber.org/zap"
)

const (
	readBufferSize = 1024
	// Upper bound on reads during shutdown so a chatty device can't hold it open
	maxDrainReads = 64
)

// Initialize a new PortReader. The reader owns conn from StartReading on and closes it when done.
func NewPortReader(conn Conn, decoder *Decoder, pollInterval time.Duration) *PortReader {
	return &PortReader{
		conn:         conn,
		decoder:      decoder,
		pollInterval: pollInterval,
		done:         make(chan struct{}),
	}
}

// Start polling the port in a goroutine until ctx is cancelled.
// handleOutput runs on the reader goroutine, in arrival order.
// handleError is called at most once, with the error that stopped the reader.
func (p *PortReader) StartReading(
	ctx context.Context,
	handleOutput func(chunk *types.Chunk),
	handleError func(error),
) {
	go func() {
		defer close(p.done)
		defer p.disconnect()

		buf := make([]byte, readBufferSize)
		for {
			// Check for stop signal
			select {
			case <-ctx.Done():
				logger.Get().Debug("Stop signal received, draining port", zap.String("port", p.conn.Name()))
				if err := p.drain(buf, handleOutput); err != nil {
					p.fail(err, handleError)
				}
				return
			default:
			}

			n, err := p.poll(buf, handleOutput)
			if err != nil {
				p.fail(err, handleError)
				return
			}
			if n > 0 {
				// More may already be waiting
				continue
			}

			select {
			case <-ctx.Done():
			case <-time.After(p.pollInterval):
			}
		}
	}()
}

// Done is closed once the reader has stopped and closed the connection.
func (p *PortReader) Done() <-chan struct{} {
	return p.done
}

// Err returns the error that stopped the reader. Only meaningful after Done.
func (p *PortReader) Err() error {
	<-p.done
	return p.err
}

func (p *PortReader) BytesReceived() uint64 {
	return p.bytesReceived.Load()
}

// Reads whatever is available and hands it over as text.
func (p *PortReader) poll(buf []byte, handleOutput func(chunk *types.Chunk)) (int, error) {
	n, err := p.conn.Read(buf)
	if n > 0 {
		text, decodeErr := p.decoder.Decode(buf[:n])
		if decodeErr != nil {
			return n, decodeErr
		}
		p.bytesReceived.Add(uint64(n))
		data := make([]byte, n)
		copy(data, buf[:n])
		handleOutput(types.NewRxChunk(p.conn.Name(), data, text))
	}
	return n, err
}

// Flushes everything still buffered by the driver.
func (p *PortReader) drain(buf []byte, handleOutput func(chunk *types.Chunk)) error {
	for i := 0; i < maxDrainReads; i++ {
		n, err := p.poll(buf, handleOutput)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	logger.Get().Warn("Port still busy after drain limit, closing anyway",
		zap.String("port", p.conn.Name()),
		zap.Int("reads", maxDrainReads))
	return nil
}

func (p *PortReader) fail(err error, handleError func(error)) {
	p.err = err
	logger.Get().Error("Port reader stopped", zap.String("port", p.conn.Name()), zap.Error(err))
	if handleError != nil {
		handleError(err)
	}
}

func (p *PortReader) disconnect() {
	if err := p.conn.Close(); err != nil {
		logger.Get().Warn("Error closing serial port", zap.String("port", p.conn.Name()), zap.Error(err))
	}
	if pending := p.decoder.Pending(); pending > 0 {
		logger.Get().Warn("Discarding incomplete character at shutdown", zap.Int("bytes", pending))
	}
}
