// Package system provides a real clock implementation.
package system

import "time"

// Clock returns the real current time in UTC.
type Clock struct{}

// New creates a Clock.
func New() Clock {
	return Clock{}
}

// Now implements the Clock interface.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
