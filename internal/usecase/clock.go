package usecase

import "time"

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
