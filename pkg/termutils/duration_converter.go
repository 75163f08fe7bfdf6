package termutils

import (
	"math"
	"time"
)

// termios VTIME counts tenths of a second and fits in a byte.
const maxDeciseconds = 255

// Rounds up to whole tenths of a second, minimum 1, maximum 255.
func DurationToDeciseconds(d time.Duration) uint8 {
	if d <= 0 {
		return 1
	}
	ds := math.Ceil(float64(d) / float64(100*time.Millisecond))
	if ds > maxDeciseconds {
		return maxDeciseconds
	}
	return uint8(ds)
}

func DecisecondsToDuration(ds uint8) time.Duration {
	return time.Duration(ds) * 100 * time.Millisecond
}

// Millisecond value accepted by drivers that require multiples of 100 ms.
func RoundToTermiosMs(d time.Duration) uint {
	return uint(DecisecondsToDuration(DurationToDeciseconds(d)) / time.Millisecond)
}
