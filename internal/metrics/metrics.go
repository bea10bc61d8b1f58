// Package metrics defines a minimal recorder for application counters.
package metrics

// Recorder records application-level counters. Implementations must be
// safe for concurrent use.
type Recorder interface {
	IncContactCreated()
	IncContactUpdated()
	IncContactDeleted()
	IncAuthCacheHit()
	IncAuthCacheMiss()
	IncEmailSent()
	IncEmailFailed()
}
