package conversation

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
)

// DefaultInactivityTimeout is how long a conversation survives without input.
const DefaultInactivityTimeout = 2 * time.Minute

// Session is the conversation state of one customer.
type Session struct {
	Step                 Step
	Draft                models.Draft
	CandidateDates       []string
	CandidateTimes       []string
	PendingCancellations []models.Booking
}

func newSession() *Session {
	return &Session{Step: StepGreeting}
}

// ExpireFunc runs once when a session is cleared for inactivity. It is called while
// the customer's turn lock is held.
type ExpireFunc func(customerID string)

// Registry holds at most one session per customer id and serializes every operation
// on the same id. Sessions and their inactivity timers are created and cleared
// together.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	active   int
	timeout  time.Duration
	onExpire ExpireFunc
	logger   *zap.Logger
}

type entry struct {
	// lock is held for the whole of a customer's turn.
	lock sync.Mutex
	// refs counts turns holding or waiting for lock; guarded by Registry.mu.
	refs    int
	session *Session
	timer   *time.Timer
	// timerGen invalidates callbacks of timers that were stopped too late.
	timerGen uint64
}

// NewRegistry builds an empty registry.
func NewRegistry(timeout time.Duration, onExpire ExpireFunc, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	return &Registry{
		entries:  make(map[string]*entry),
		timeout:  timeout,
		onExpire: onExpire,
		logger:   logger,
	}
}

// Turn is exclusive access to one customer's session. Every session operation goes
// through a Turn, so two turns for the same customer never interleave.
type Turn struct {
	registry   *Registry
	customerID string
	e          *entry
}

// Begin blocks until no other turn for customerID is running and returns a Turn that
// must be released with End.
func (r *Registry) Begin(customerID string) *Turn {
	r.mu.Lock()
	e, ok := r.entries[customerID]
	if !ok {
		e = &entry{}
		r.entries[customerID] = e
	}
	e.refs++
	r.mu.Unlock()

	e.lock.Lock()
	return &Turn{registry: r, customerID: customerID, e: e}
}

// End releases the turn. Idle entries are dropped from the registry.
func (t *Turn) End() {
	r := t.registry
	idle := t.e.session == nil && t.e.timer == nil

	r.mu.Lock()
	t.e.refs--
	if t.e.refs == 0 && idle {
		delete(r.entries, t.customerID)
	}
	r.mu.Unlock()

	t.e.lock.Unlock()
}

// Session returns the open session, if any.
func (t *Turn) Session() (*Session, bool) {
	return t.e.session, t.e.session != nil
}

// Create replaces any session with a fresh one at the greeting step.
func (t *Turn) Create() *Session {
	if t.e.session == nil {
		t.registry.adjustActive(1)
	}
	t.e.session = newSession()
	return t.e.session
}

// Clear removes the session and disarms its timer. Clearing an absent session is a no-op.
func (t *Turn) Clear() {
	t.disarm()
	if t.e.session != nil {
		t.e.session = nil
		t.registry.adjustActive(-1)
	}
}

// Arm (re)starts the inactivity countdown, cancelling any pending one.
func (t *Turn) Arm() {
	t.disarm()
	gen := t.e.timerGen
	r := t.registry
	id := t.customerID
	t.e.timer = time.AfterFunc(r.timeout, func() { r.expire(id, gen) })
}

func (t *Turn) disarm() {
	if t.e.timer != nil {
		t.e.timer.Stop()
		t.e.timer = nil
	}
	t.e.timerGen++
}

func (r *Registry) expire(customerID string, gen uint64) {
	t := r.Begin(customerID)
	defer t.End()

	if t.e.timerGen != gen {
		// Re-armed or cleared while this callback waited for the lock.
		return
	}
	t.e.timer = nil
	if t.e.session == nil {
		return
	}

	t.e.session = nil
	r.adjustActive(-1)
	metrics.IncSessionsExpired()
	r.logger.Info("session expired", zap.String("from", customerID))

	if r.onExpire != nil {
		r.onExpire(customerID)
	}
}

func (r *Registry) adjustActive(delta int) {
	r.mu.Lock()
	r.active += delta
	active := r.active
	r.mu.Unlock()
	metrics.SetSessionsActive(active)
}

// Active returns the number of open sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Stop disarms every pending timer. Sessions stay readable but will no longer expire.
func (r *Registry) Stop() {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.lock.Lock()
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.timerGen++
		e.lock.Unlock()
	}
}
