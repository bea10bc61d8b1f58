package metrics

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) IncContactCreated() {}
func (*NoopRecorder) IncContactUpdated() {}
func (*NoopRecorder) IncContactDeleted() {}
func (*NoopRecorder) IncAuthCacheHit()   {}
func (*NoopRecorder) IncAuthCacheMiss()  {}
func (*NoopRecorder) IncEmailSent()      {}
func (*NoopRecorder) IncEmailFailed()    {}
