package mirror

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/NotCoffee418/serial_terminal/pkg/logger"
	"github.com/NotCoffee418/serial_terminal/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
)

// MirrorURL is the websocket endpoint of a terminal's mirror at host.
func MirrorURL(host string, useTLS bool) url.URL {
	scheme := "ws"
	if useTLS {
		scheme = "wss"
	}
	return url.URL{Scheme: scheme, Host: host, Path: "/ws"}
}

// Follow a terminal mirror and call handleChunk for every chunk it streams.
// Reconnects with exponential backoff. Returns nil when ctx is cancelled,
// ErrGaveUp after maxRetries failed attempts in a row.
func StartListener(ctx context.Context, host string, useTLS bool, handleChunk func(chunk *types.Chunk)) error {
	u := MirrorURL(host, useTLS)
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		if retryCount > 0 {
			retryDelay := retryBackoff(retryCount)
			logger.Get().Info("Retrying connection",
				zap.Duration("delay", retryDelay),
				zap.Int("attempt", retryCount+1),
				zap.Int("max_attempts", maxRetries))
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}
		}

		logger.Get().Info("Connecting to mirror", zap.String("url", u.String()))

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Get().Warn("Connection failed", zap.Error(err))
			retryCount++
			if retryCount >= maxRetries {
				return fmt.Errorf("%w: %d attempts to %s", ErrGaveUp, maxRetries, u.String())
			}
			continue
		}

		logger.Get().Info("Connected, following terminal output")
		retryCount = 0

		connectionBroken := handleConnection(ctx, c, handleChunk)
		c.Close()
		if !connectionBroken {
			return nil
		}

		logger.Get().Warn("Connection lost, will retry")
	}
}

// Delay before attempt retryCount+1: base doubled per retry, capped.
func retryBackoff(retryCount int) time.Duration {
	if retryCount > 6 {
		return maxRetryDelay
	}
	retryDelay := time.Duration(1<<(retryCount-1)) * baseRetryDelay
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}
	return retryDelay
}

// Reports whether the connection broke, false when ctx ended it.
func handleConnection(ctx context.Context, c *websocket.Conn, handleChunk func(chunk *types.Chunk)) bool {
	done := make(chan struct{})

	// A quiet device still gets pinged by the hub
	c.SetReadDeadline(time.Now().Add(readIdleLimit))
	c.SetPingHandler(func(data string) error {
		c.SetReadDeadline(time.Now().Add(readIdleLimit))
		return c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Get().Warn("WebSocket error", zap.Error(err))
				} else {
					logger.Get().Info("Connection closed", zap.Error(err))
				}
				return
			}

			c.SetReadDeadline(time.Now().Add(readIdleLimit))

			if messageType != websocket.TextMessage {
				logger.Get().Debug("Ignoring unexpected message type", zap.Int("type", messageType))
				continue
			}
			if chunk := types.ChunkFromJsonBytes(message); chunk != nil {
				handleChunk(chunk)
			} else {
				logger.Get().Warn("Failed to parse chunk", zap.ByteString("message", message))
			}
		}
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		err := c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		if err != nil {
			logger.Get().Debug("Error sending close message", zap.Error(err))
		}

		// Wait for close confirmation or timeout
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return false
	}
}
