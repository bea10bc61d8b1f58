package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ContactsCreated uint64
	ContactsUpdated uint64
	ContactsDeleted uint64
	AuthCacheHits   uint64
	AuthCacheMisses uint64
	EmailsSent      uint64
	EmailsFailed    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	contactsCreated uint64
	contactsUpdated uint64
	contactsDeleted uint64
	authCacheHits   uint64
	authCacheMisses uint64
	emailsSent      uint64
	emailsFailed    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ContactsCreated: atomic.LoadUint64(&m.contactsCreated),
		ContactsUpdated: atomic.LoadUint64(&m.contactsUpdated),
		ContactsDeleted: atomic.LoadUint64(&m.contactsDeleted),
		AuthCacheHits:   atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses: atomic.LoadUint64(&m.authCacheMisses),
		EmailsSent:      atomic.LoadUint64(&m.emailsSent),
		EmailsFailed:    atomic.LoadUint64(&m.emailsFailed),
	}
}

func (m *InMemoryRecorder) IncContactCreated() { atomic.AddUint64(&m.contactsCreated, 1) }
func (m *InMemoryRecorder) IncContactUpdated() { atomic.AddUint64(&m.contactsUpdated, 1) }
func (m *InMemoryRecorder) IncContactDeleted() { atomic.AddUint64(&m.contactsDeleted, 1) }
func (m *InMemoryRecorder) IncAuthCacheHit()   { atomic.AddUint64(&m.authCacheHits, 1) }
func (m *InMemoryRecorder) IncAuthCacheMiss()  { atomic.AddUint64(&m.authCacheMisses, 1) }
func (m *InMemoryRecorder) IncEmailSent()      { atomic.AddUint64(&m.emailsSent, 1) }
func (m *InMemoryRecorder) IncEmailFailed()    { atomic.AddUint64(&m.emailsFailed, 1) }
