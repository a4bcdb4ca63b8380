package handler

import (
	"fmt"
	"net/http"

	"github.com/noisyneuron/noisyneuron/internal/metrics"
)

// MetricsHandler exposes in-memory account counters.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "noisyneuron_signups_total %d\n", snap.Signups)
	writeMetric(w, "noisyneuron_logins_total{result=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "noisyneuron_logins_total{result=\"failure\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "noisyneuron_logouts_total %d\n", snap.Logouts)

	writeMetric(w, "noisyneuron_profiles_created_total %d\n", snap.ProfilesCreated)
	writeMetric(w, "noisyneuron_profiles_updated_total %d\n", snap.ProfilesUpdated)

	writeMetric(w, "noisyneuron_account_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "noisyneuron_account_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
