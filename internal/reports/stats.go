// Package reports aggregates practice metrics for the professional
// dashboard.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats represents per-professional practice metrics.
type Stats struct {
	ProfessionalID      string  `json:"professional_id"`
	SessionsScheduled   int64   `json:"sessions_scheduled"`
	SessionsCompleted   int64   `json:"sessions_completed"`
	SessionsCancelled   int64   `json:"sessions_cancelled"`
	NoShows             int64   `json:"no_shows"`
	RevenueCents        int64   `json:"revenue_cents"`
	PendingRevenueCents int64   `json:"pending_revenue_cents"`
	ActivePatients      int64   `json:"active_patients"`
	AttendanceRatePct   float64 `json:"attendance_rate_pct"`
	SatisfactionAvg     float64 `json:"satisfaction_avg"`
	PeriodStart         string  `json:"period_start"`
	PeriodEnd           string  `json:"period_end"`
}

// statsDB defines the database interface needed by StatsRepository
type statsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatsRepository queries practice metrics from the database.
type StatsRepository struct {
	db statsDB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("reports: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db statsDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated metrics for a professional. Optional
// start/end times filter by session start; nil returns all-time stats.
func (r *StatsRepository) GetStats(ctx context.Context, professionalID string, start, end *time.Time) (*Stats, error) {
	stats := &Stats{ProfessionalID: professionalID}

	var timeFilter string
	args := []any{professionalID}
	if start != nil && end != nil {
		timeFilter = " AND start_time >= $2 AND start_time < $3"
		args = append(args, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	countsQuery := `
		SELECT COUNT(*) FILTER (WHERE status = 'scheduled'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled_by_patient'),
		       COUNT(*) FILTER (WHERE status = 'no_show'),
		       COALESCE(SUM(price_cents) FILTER (WHERE paid), 0),
		       COALESCE(SUM(price_cents) FILTER (WHERE NOT paid AND status = 'completed'), 0),
		       COALESCE(AVG(satisfaction), 0)
		FROM sessions WHERE professional_id = $1` + timeFilter
	if err := r.db.QueryRow(ctx, countsQuery, args...).Scan(
		&stats.SessionsScheduled, &stats.SessionsCompleted, &stats.SessionsCancelled,
		&stats.NoShows, &stats.RevenueCents, &stats.PendingRevenueCents,
		&stats.SatisfactionAvg,
	); err != nil {
		return nil, fmt.Errorf("reports: count sessions: %w", err)
	}

	patientsQuery := `SELECT COUNT(*) FROM patients WHERE professional_id = $1 AND status = 'active'`
	if err := r.db.QueryRow(ctx, patientsQuery, professionalID).Scan(&stats.ActivePatients); err != nil {
		return nil, fmt.Errorf("reports: count patients: %w", err)
	}

	held := stats.SessionsCompleted + stats.NoShows
	if held > 0 {
		stats.AttendanceRatePct = float64(stats.SessionsCompleted) / float64(held) * 100.0
	}
	return stats, nil
}
