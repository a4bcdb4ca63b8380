package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(result string) {}

// IncLogout is a no-op.
func (n *NoopRecorder) IncLogout() {}

// IncProfileCreated is a no-op.
func (n *NoopRecorder) IncProfileCreated() {}

// IncProfileUpdated is a no-op.
func (n *NoopRecorder) IncProfileUpdated() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}
