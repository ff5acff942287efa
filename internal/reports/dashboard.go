package reports

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/pkg/logging"
)

const availabilityLatencyMetric = "psiclinic_scheduling_availability_compute_seconds"

// LatencySnapshot summarizes the availability-computation histogram for the
// dashboard, read from the in-process prometheus registry.
type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

// LatencyBucket is one histogram bucket of the snapshot.
type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// Dashboard is the payload of GET /reports/dashboard.
type Dashboard struct {
	Stats               *Stats          `json:"stats"`
	AvailabilityLatency LatencySnapshot `json:"availability_latency"`
}

// Handler serves practice reports to the authenticated professional.
type Handler struct {
	stats    *StatsRepository
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewHandler creates a reports handler.
func NewHandler(stats *StatsRepository, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if stats == nil {
		panic("reports: stats repository required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stats: stats, gatherer: gatherer, logger: logger}
}

// GetStats handles GET /reports/stats
// Query params:
//   - start: RFC3339 timestamp (optional, requires end)
//   - end: RFC3339 timestamp (optional, requires start)
//   - days: integer window (default all-time) when start/end omitted
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	start, end, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.stats.GetStats(r.Context(), caller.UserID, start, end)
	if err != nil {
		h.logger.Error("failed to query stats", "error", err, "professional_id", caller.UserID)
		http.Error(w, "failed to query stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetDashboard handles GET /reports/dashboard: stats plus an operational
// snapshot of the availability calculator's latency.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	start, end, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.stats.GetStats(r.Context(), caller.UserID, start, end)
	if err != nil {
		h.logger.Error("failed to query stats", "error", err, "professional_id", caller.UserID)
		http.Error(w, "failed to query stats", http.StatusInternalServerError)
		return
	}

	resp := Dashboard{
		Stats:               stats,
		AvailabilityLatency: snapshotAvailabilityLatency(h.gatherer),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func parseWindow(r *http.Request) (*time.Time, *time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return nil, nil, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return nil, nil, fmt.Errorf("end must be after start")
		}
		start, end = start.UTC(), end.UTC()
		return &start, &end, nil
	}

	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 || days > 365 {
			return nil, nil, fmt.Errorf("invalid days; must be 1-365")
		}
		now := time.Now().UTC()
		end := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
		start := end.AddDate(0, 0, -days)
		return &start, &end, nil
	}
	return nil, nil, nil
}

func snapshotAvailabilityLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == availabilityLatencyMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	// Aggregate across label sets, keeping only status="ok".
	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil || !hasLabel(metric, "status", "ok") {
			continue
		}
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		sampleCount += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(0)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum
		bucket := LatencyBucket{LeSeconds: upper, Count: count}
		if math.IsInf(upper, 1) {
			bucket.Label = "+Inf"
		}
		buckets = append(buckets, bucket)
	}

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   quantileMs(uppers, cumulativeByUpper, sampleCount, 0.90),
		P95Ms:   quantileMs(uppers, cumulativeByUpper, sampleCount, 0.95),
		Buckets: buckets,
	}
}

// quantileMs returns the upper bound of the first bucket covering the
// quantile, in milliseconds. A coarse estimate, good enough for a dashboard.
func quantileMs(uppers []float64, cumulative map[float64]uint64, total uint64, q float64) float64 {
	target := uint64(math.Ceil(q * float64(total)))
	var lastFinite float64
	for _, upper := range uppers {
		if !math.IsInf(upper, 1) {
			lastFinite = upper
		}
		if cumulative[upper] >= target {
			if math.IsInf(upper, 1) {
				return lastFinite * 1000
			}
			return upper * 1000
		}
	}
	return lastFinite * 1000
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.Label {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
