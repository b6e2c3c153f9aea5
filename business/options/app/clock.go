package app

import "time"

// SystemClock is the default Clock, backed by the wall clock.
type SystemClock struct{}

// NewSystemClock constructs the default production Clock.
func NewSystemClock() SystemClock { return SystemClock{} }

// NowMillis returns the current time as Unix milliseconds.
func (SystemClock) NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
