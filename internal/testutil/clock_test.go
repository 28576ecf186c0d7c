package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualClock_Now(t *testing.T) {
	c := NewManualClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, epoch.Add(time.Second), c.Now())
}

func TestManualClock_AfterFuncFiresWhenDue(t *testing.T) {
	c := NewManualClock(epoch)
	fired := 0
	c.AfterFunc(2*time.Second, func() { fired++ })

	c.Advance(1999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, c.PendingTimers())

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.PendingTimers())

	c.Advance(time.Hour)
	assert.Equal(t, 1, fired)
}

func TestManualClock_TimersFireInDeadlineOrderAtTheirDeadline(t *testing.T) {
	c := NewManualClock(epoch)
	var order []string
	var seen []time.Time
	c.AfterFunc(3*time.Second, func() { order = append(order, "b"); seen = append(seen, c.Now()) })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a"); seen = append(seen, c.Now()) })

	c.Advance(5 * time.Second)

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(3 * time.Second)}, seen)
	assert.Equal(t, epoch.Add(5*time.Second), c.Now())
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManualClock_CallbackMaySchedule(t *testing.T) {
	c := NewManualClock(epoch)
	count := 0
	var schedule func()
	schedule = func() {
		count++
		if count < 3 {
			c.AfterFunc(time.Second, schedule)
		}
	}
	c.AfterFunc(time.Second, schedule)

	c.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
}

func TestManualClock_Ticker(t *testing.T) {
	c := NewManualClock(epoch)
	tk := c.NewTicker(5 * time.Second)
	assert.Equal(t, 1, c.ActiveTickers())

	c.Advance(4 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("ticked early")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-tk.C():
		assert.Equal(t, epoch.Add(5*time.Second), at)
	default:
		t.Fatal("expected tick")
	}

	// A full buffer drops extra ticks.
	c.Advance(20 * time.Second)
	require.Len(t, tk.C(), 1)

	tk.Stop()
	assert.Equal(t, 0, c.ActiveTickers())
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("op")
	assert.Equal(t, "op-1", ids.Next())
	assert.Equal(t, "op-2", ids.Next())
}
