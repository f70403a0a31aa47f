package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_Fires(t *testing.T) {
	s := NewScheduler(5*time.Millisecond, 10*time.Millisecond)
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("t1", "driver_arrived", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return s.Pending("t1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_ReplacesSameKey(t *testing.T) {
	s := NewScheduler(30*time.Millisecond, 30*time.Millisecond)
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule("t1", "friend_voted", func() { first.Add(1) })
	s.Schedule("t1", "friend_voted", func() { second.Add(1) })
	assert.Equal(t, 1, s.Pending("t1"))

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(20*time.Millisecond, 20*time.Millisecond)
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("t1", "friend_voted", func() { fired.Add(1) })
	s.Schedule("t1", "driver_arrived", func() { fired.Add(1) })
	s.Schedule("t2", "friend_voted", func() { fired.Add(10) })
	assert.Equal(t, 2, s.Pending("t1"))
	assert.Equal(t, 3, s.Len())

	s.Cancel("t1")
	assert.Zero(t, s.Pending("t1"))
	assert.Equal(t, 1, s.Len())
	assert.Eventually(t, func() bool { return fired.Load() == 10 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, s.Len())
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, 10*time.Millisecond)

	var fired atomic.Int32
	s.Schedule("t1", "friend_voted", func() { fired.Add(1) })
	s.Stop()
	s.Schedule("t1", "driver_arrived", func() { fired.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.Zero(t, s.Pending("t1"))
}

func TestScheduler_DelayWithinWindow(t *testing.T) {
	s := NewScheduler(3*time.Second, 6*time.Second)
	for range 100 {
		d := s.delay()
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.Less(t, d, 6*time.Second)
	}
	assert.Equal(t, time.Second, NewScheduler(time.Second, time.Second).delay())
}
