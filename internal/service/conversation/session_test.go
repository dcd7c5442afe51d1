package conversation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiryRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *expiryRecorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *expiryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func TestRegistryCreateGetClear(t *testing.T) {
	reg := NewRegistry(time.Minute, nil, nil)

	turn := reg.Begin("573001")
	_, ok := turn.Session()
	assert.False(t, ok)

	s := turn.Create()
	assert.Equal(t, StepGreeting, s.Step)
	assert.Equal(t, 1, reg.Active())

	got, ok := turn.Session()
	require.True(t, ok)
	assert.Same(t, s, got)

	turn.Clear()
	turn.Clear()
	_, ok = turn.Session()
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Active())
	turn.End()

	assert.Empty(t, reg.entries)
}

func TestRegistryCreateReplacesSession(t *testing.T) {
	reg := NewRegistry(time.Minute, nil, nil)
	turn := reg.Begin("a")
	defer turn.End()

	first := turn.Create()
	first.Step = StepConfirmation
	second := turn.Create()

	assert.Equal(t, StepGreeting, second.Step)
	assert.Equal(t, 1, reg.Active())
}

func TestRegistryExpiresIdleSession(t *testing.T) {
	rec := &expiryRecorder{}
	reg := NewRegistry(20*time.Millisecond, rec.record, nil)

	turn := reg.Begin("a")
	turn.Create()
	turn.Arm()
	turn.End()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	turn = reg.Begin("a")
	_, ok := turn.Session()
	turn.End()
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Active())

	// The timer is consumed; nothing fires again without a new Arm.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestRegistryRearmPostponesExpiry(t *testing.T) {
	rec := &expiryRecorder{}
	reg := NewRegistry(80*time.Millisecond, rec.record, nil)

	for i := 0; i < 4; i++ {
		turn := reg.Begin("a")
		if _, ok := turn.Session(); !ok {
			turn.Create()
		}
		turn.Arm()
		turn.End()
		time.Sleep(40 * time.Millisecond)
	}
	assert.Equal(t, 0, rec.count())

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRegistryClearDisarms(t *testing.T) {
	rec := &expiryRecorder{}
	reg := NewRegistry(20*time.Millisecond, rec.record, nil)

	turn := reg.Begin("a")
	turn.Create()
	turn.Arm()
	turn.Clear()
	turn.End()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Empty(t, reg.entries)
}

func TestRegistryExpiryDoesNotClearReplacedSession(t *testing.T) {
	rec := &expiryRecorder{}
	reg := NewRegistry(40*time.Millisecond, rec.record, nil)

	turn := reg.Begin("a")
	turn.Create()
	turn.Arm()
	// Hold the turn past the deadline so the callback queues behind it.
	time.Sleep(80 * time.Millisecond)
	s := turn.Create()
	s.Step = StepMainMenu
	turn.Arm()
	turn.End()

	turn = reg.Begin("a")
	got, ok := turn.Session()
	turn.End()
	require.True(t, ok)
	assert.Equal(t, StepMainMenu, got.Step)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRegistrySerializesTurnsPerCustomer(t *testing.T) {
	reg := NewRegistry(time.Minute, nil, nil)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn := reg.Begin("same")
			defer turn.End()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, reg.entries)
}

func TestRegistryDifferentCustomersRunConcurrently(t *testing.T) {
	reg := NewRegistry(time.Minute, nil, nil)

	held := reg.Begin("a")
	done := make(chan struct{})
	go func() {
		turn := reg.Begin("b")
		turn.End()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("turn for another customer was blocked")
	}
	held.End()
}

func TestRegistryStopDisarmsTimers(t *testing.T) {
	rec := &expiryRecorder{}
	reg := NewRegistry(20*time.Millisecond, rec.record, nil)

	turn := reg.Begin("a")
	turn.Create()
	turn.Arm()
	turn.End()

	reg.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 1, reg.Active())
}
