package service

import (
	"sync"
	"time"

	"distillation_monitor/internal/models"
	"distillation_monitor/internal/provider"
)

// History is the append-only list of samples produced in the current
// session. Readers get clones, never the backing slice.
type History struct {
	mu      sync.RWMutex
	entries []models.ColumnEntry
}

// Append stores e and returns its index.
func (h *History) Append(e models.ColumnEntry) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return len(h.entries) - 1
}

// Snapshot returns a deep copy of the history.
func (h *History) Snapshot() []models.ColumnEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.ColumnEntry, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Clone()
	}
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

// Session is the guarded transmission state shared by the loop and the
// command handlers.
type Session struct {
	mu sync.Mutex

	id           string
	state        string
	provider     provider.DataProvider
	plateCount   int
	baseInterval time.Duration
	interval     time.Duration
	lastErr      error
	updatedAt    time.Time

	// generation changes whenever the provider is reset or replaced so a
	// sample produced by an in-flight Next can be recognised as stale.
	generation uint64
	loopActive bool

	// producing is the provider the loop is inside Next on. A reset that
	// arrives meanwhile is left to the loop so it lands after that Next.
	producing    provider.DataProvider
	resetPending bool

	history *History
	wake    chan struct{}
}

// NewSession returns an idle session bound to p.
func NewSession(p provider.DataProvider, plateCount int, baseInterval time.Duration) *Session {
	return &Session{
		state:        models.StateIdle,
		provider:     p,
		plateCount:   plateCount,
		baseInterval: baseInterval,
		interval:     baseInterval,
		history:      &History{},
		wake:         make(chan struct{}, 1),
	}
}

// History returns the session history.
func (s *Session) History() *History { return s.history }

// tick is what one loop iteration needs, read under the lock.
type tick struct {
	sessionID  string
	state      string
	provider   provider.DataProvider
	plateCount int
	interval   time.Duration
	generation uint64
}

func (s *Session) tick() tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tick{
		sessionID:  s.id,
		state:      s.state,
		provider:   s.provider,
		plateCount: s.plateCount,
		interval:   s.interval,
		generation: s.generation,
	}
}

func (s *Session) beginProduce(p provider.DataProvider) {
	s.mu.Lock()
	s.producing = p
	s.mu.Unlock()
}

// endProduce reports whether a reset was requested during the Next.
func (s *Session) endProduce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.resetPending
	s.producing, s.resetPending = nil, false
	return pending
}

// deferReset reports whether p is being read by the loop and, if so, hands
// the reset over to it. Must be called with s.mu held.
func (s *Session) deferReset(p provider.DataProvider) bool {
	if p == nil || s.producing != p {
		return false
	}
	s.resetPending = true
	return true
}

// signal wakes a waiting loop without blocking.
func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) acquireLoop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loopActive {
		return false
	}
	s.loopActive = true
	return true
}

func (s *Session) releaseLoop() {
	s.mu.Lock()
	s.loopActive = false
	s.mu.Unlock()
}

func (s *Session) status(now time.Time) models.TransmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.TransmissionStatus{
		SessionID:     s.id,
		State:         s.state,
		PlateCount:    s.plateCount,
		Interval:      s.interval,
		IntervalMs:    s.interval.Milliseconds(),
		HistoryLength: s.history.Len(),
		UpdatedAt:     s.updatedAt,
	}
	if s.provider != nil {
		st.Source = string(s.provider.Kind())
		st.Position = s.provider.Position()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.LastErrorKind = Classify(s.lastErr)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = now
	}
	return st
}
