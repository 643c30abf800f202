package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	var fired []string
	c.AfterFunc(2*time.Hour, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Hour, func() { fired = append(fired, "a") })
	c.AfterFunc(3*time.Hour, func() { fired = append(fired, "c") })

	c.Advance(2 * time.Hour)

	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, start.Add(2*time.Hour), c.Now())
}

func TestFakeClock_StopPreventsFire(t *testing.T) {
	c := NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	fired := false
	tm := c.AfterFunc(time.Minute, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	c.Advance(time.Hour)
	assert.False(t, fired)
	assert.Zero(t, c.Pending())
}
