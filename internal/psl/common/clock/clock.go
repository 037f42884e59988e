package clock

import "time"

// Clock supplies the current time; snapshot timestamps go through it so tests can pin them.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock returns a fixed time until advanced.
type MockClock struct {
	currentTime time.Time
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{currentTime: start}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}
