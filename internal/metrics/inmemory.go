package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups         uint64
	LoginsSucceeded uint64
	LoginsFailed    uint64
	Logouts         uint64
	ProfilesCreated uint64
	ProfilesUpdated uint64
	EventsPublished uint64
	EventsDropped   uint64
}

// InMemoryRecorder stores counters in memory. It backs the /metrics endpoint
// and is handy in tests.
type InMemoryRecorder struct {
	signups         atomic.Uint64
	loginsSucceeded atomic.Uint64
	loginsFailed    atomic.Uint64
	logouts         atomic.Uint64
	profilesCreated atomic.Uint64
	profilesUpdated atomic.Uint64
	eventsPublished atomic.Uint64
	eventsDropped   atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:         m.signups.Load(),
		LoginsSucceeded: m.loginsSucceeded.Load(),
		LoginsFailed:    m.loginsFailed.Load(),
		Logouts:         m.logouts.Load(),
		ProfilesCreated: m.profilesCreated.Load(),
		ProfilesUpdated: m.profilesUpdated.Load(),
		EventsPublished: m.eventsPublished.Load(),
		EventsDropped:   m.eventsDropped.Load(),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	m.signups.Add(1)
}

// IncLogin increments the login counter for the given result.
func (m *InMemoryRecorder) IncLogin(result string) {
	if result == LoginSuccess {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// IncLogout increments the logout counter.
func (m *InMemoryRecorder) IncLogout() {
	m.logouts.Add(1)
}

// IncProfileCreated increments the lazily-created profile counter.
func (m *InMemoryRecorder) IncProfileCreated() {
	m.profilesCreated.Add(1)
}

// IncProfileUpdated increments the profile update counter.
func (m *InMemoryRecorder) IncProfileUpdated() {
	m.profilesUpdated.Add(1)
}

// IncEventPublished increments the event counter for the given status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == EventSuccess {
		m.eventsPublished.Add(1)
		return
	}
	m.eventsDropped.Add(1)
}
