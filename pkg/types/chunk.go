package types

import (
	"encoding/json"
	"time"
)

type Direction string

const (
	// Bytes received from the device
	DirectionRx Direction = "rx"
	// Keystrokes sent to the device
	DirectionTx Direction = "tx"
)

type Chunk struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Port      string    `json:"port"`

	// Raw bytes as they crossed the wire
	Data []byte `json:"data"`
	// Decoded text, empty for sent keystrokes
	Text string `json:"text,omitempty"`
}

func NewRxChunk(port string, data []byte, text string) *Chunk {
	return &Chunk{
		Timestamp: time.Now(),
		Direction: DirectionRx,
		Port:      port,
		Data:      data,
		Text:      text,
	}
}

func NewTxChunk(port string, key byte) *Chunk {
	return &Chunk{
		Timestamp: time.Now(),
		Direction: DirectionTx,
		Port:      port,
		Data:      []byte{key},
	}
}

func (c *Chunk) ToJsonBytes() []byte {
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return data
}

// Returns nil when the message is not a chunk.
func ChunkFromJsonBytes(data []byte) *Chunk {
	var chunk Chunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil
	}
	if chunk.Direction != DirectionRx && chunk.Direction != DirectionTx {
		return nil
	}
	return &chunk
}
