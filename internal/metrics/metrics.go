// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account lifecycle
	IncSignup()
	IncLogin(result string) // result: "success" or "failure"
	IncLogout()

	// Profiles
	IncProfileCreated()
	IncProfileUpdated()

	// Account event stream
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Login results.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Event publish statuses.
const (
	EventSuccess = "success"
	EventDropped = "dropped"
)

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
