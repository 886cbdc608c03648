// Package clock provides an injectable time source so time-derived state
// (quote expiry, invoice past-due) can be tested deterministically.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }
