package keyboard

import (
	"io"
	"sync"
)

// Keyboard delivers single raw keystrokes from the console.
type Keyboard struct {
	in  io.Reader
	buf [1]byte

	// Puts the console back the way it was found, nil when nothing was changed
	restore     func() error
	restoreOnce sync.Once
	restoreErr  error
}
