package port_reader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	reads   [][]byte
	readErr error
	closed  int
}

func (f *fakeConn) push(data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, []byte(data))
}

func (f *fakeConn) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) == 0 {
		return 0, f.readErr
	}
	n := copy(p, f.reads[0])
	f.reads = f.reads[1:]
	return n, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) Name() string {
	return "/dev/ttyFAKE"
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type console struct {
	mu  sync.Mutex
	out strings.Builder
}

func (c *console) handle(chunk *types.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.WriteString(chunk.Text)
}

func (c *console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func newReader(t *testing.T, conn Conn, encoding Encoding) *PortReader {
	t.Helper()
	decoder, err := NewDecoder(encoding)
	require.NoError(t, err)
	return NewPortReader(conn, decoder, 10*time.Millisecond)
}

func waitDone(t *testing.T, reader *PortReader) {
	t.Helper()
	select {
	case <-reader.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestDeviceOutputIsPrintedVerbatim(t *testing.T) {
	conn := &fakeConn{}
	conn.push("OK\n")
	out := &console{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(ctx, out.handle, func(err error) { t.Errorf("unexpected error: %v", err) })

	require.Eventually(t, func() bool { return out.String() == "OK\n" }, time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, reader)
	assert.Equal(t, "OK\n", out.String())
	assert.Equal(t, uint64(3), reader.BytesReceived())
	assert.NoError(t, reader.Err())
}

func TestStopClosesConnectionOnce(t *testing.T) {
	conn := &fakeConn{}
	ctx, cancel := context.WithCancel(context.Background())
	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(ctx, func(*types.Chunk) {}, nil)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, conn.closeCount(), "connection must stay open while running")

	cancel()
	waitDone(t, reader)
	assert.Equal(t, 1, conn.closeCount())
}

func TestPendingBytesAreFlushedBeforeClose(t *testing.T) {
	conn := &fakeConn{}
	conn.push("line one\n")
	conn.push("line two\n")
	conn.push("> ")
	out := &console{}

	// Already stopped: the reader goes straight to draining
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(ctx, out.handle, nil)

	waitDone(t, reader)
	assert.Equal(t, "line one\nline two\n> ", out.String())
	assert.Equal(t, 1, conn.closeCount())
}

func TestDecodeErrorStopsReader(t *testing.T) {
	conn := &fakeConn{}
	conn.push("ok")
	conn.push(string([]byte{0xfe}))
	out := &console{}

	var reported error
	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(context.Background(), out.handle, func(err error) { reported = err })

	waitDone(t, reader)
	var decodeErr *DecodeError
	require.ErrorAs(t, reader.Err(), &decodeErr)
	assert.Equal(t, reader.Err(), reported)
	assert.Equal(t, "ok", out.String())
	assert.Equal(t, 1, conn.closeCount())
}

func TestReadErrorStopsReader(t *testing.T) {
	unplugged := errors.New("input/output error")
	conn := &fakeConn{readErr: unplugged}

	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(context.Background(), func(*types.Chunk) {}, nil)

	waitDone(t, reader)
	assert.ErrorIs(t, reader.Err(), unplugged)
	assert.Equal(t, 1, conn.closeCount())
}

func TestChunksCarryRawBytes(t *testing.T) {
	conn := &fakeConn{}
	conn.push("A\r\n")
	var chunks []*types.Chunk

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := newReader(t, conn, EncodingASCII)
	reader.StartReading(ctx, func(c *types.Chunk) { chunks = append(chunks, c) }, nil)

	waitDone(t, reader)
	require.Len(t, chunks, 1)
	assert.Equal(t, types.DirectionRx, chunks[0].Direction)
	assert.Equal(t, []byte("A\r\n"), chunks[0].Data)
	assert.Equal(t, "/dev/ttyFAKE", chunks[0].Port)
}
