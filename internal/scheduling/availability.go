// Package scheduling computes bookable appointment slots for a professional.
//
// The calculator is pure: it operates on session intervals already loaded by
// the caller, performs no I/O, and never reserves anything. Callers that
// commit a booking must re-validate the chosen slot against the current
// session list (see sessions.Service.Book).
package scheduling

import (
	"fmt"
	"sort"
	"time"
)

// SessionStatus mirrors the lifecycle of a committed session as far as the
// calculator cares: whether the session still occupies the calendar.
type SessionStatus string

const (
	StatusScheduled          SessionStatus = "scheduled"
	StatusCompleted          SessionStatus = "completed"
	StatusCancelledByPatient SessionStatus = "cancelled_by_patient"
	StatusNoShow             SessionStatus = "no_show"
)

// Blocks reports whether a session in this status still occupies its
// interval. Cancelled sessions free their slot.
func (s SessionStatus) Blocks() bool {
	return s != StatusCancelledByPatient
}

// SessionInterval is the slice of a committed session the calculator needs.
type SessionInterval struct {
	Start  time.Time
	End    time.Time
	Status SessionStatus
}

// Policy configures slot generation. The zero value is not valid; use
// DefaultPolicy and override fields as needed.
type Policy struct {
	WindowDays             int
	DayStartHour           int
	DayEndHour             int
	SlotGranularityMinutes int
	IncludeWeekends        bool
	// Location pins day boundaries and weekday checks to a fixed timezone
	// so results do not depend on the server's local clock settings.
	Location *time.Location
}

// DefaultPolicy returns the clinic's standard booking policy: a 7-day
// window, weekdays 09:00-17:00, slots every 30 minutes.
func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		WindowDays:             7,
		DayStartHour:           9,
		DayEndHour:             17,
		SlotGranularityMinutes: 30,
		IncludeWeekends:        false,
		Location:               loc,
	}
}

// ConfigurationError reports an invalid policy or request parameter. It is a
// caller defect, distinguishable from a legitimately empty result.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scheduling: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks policy invariants.
func (p Policy) Validate() error {
	if p.WindowDays <= 0 {
		return &ConfigurationError{Field: "window_days", Reason: "must be positive"}
	}
	if p.DayStartHour < 0 || p.DayStartHour > 23 {
		return &ConfigurationError{Field: "day_start_hour", Reason: "must be within 0-23"}
	}
	if p.DayEndHour < 1 || p.DayEndHour > 24 {
		return &ConfigurationError{Field: "day_end_hour", Reason: "must be within 1-24"}
	}
	if p.DayStartHour >= p.DayEndHour {
		return &ConfigurationError{Field: "day_end_hour", Reason: "must be after day_start_hour"}
	}
	if p.SlotGranularityMinutes <= 0 {
		return &ConfigurationError{Field: "slot_granularity_minutes", Reason: "must be positive"}
	}
	if p.Location == nil {
		return &ConfigurationError{Field: "location", Reason: "timezone is required"}
	}
	return nil
}

// DaySlots groups the bookable start times of one calendar day.
type DaySlots struct {
	Day   time.Time   `json:"day"`
	Slots []time.Time `json:"slots"`
}

// ComputeAvailableSlots returns, grouped by day in chronological order, every
// start time within the policy window at which a session of the given
// duration would not overlap any blocking session in sessions. Slots starting
// strictly before windowStart are excluded. Days with no surviving slots are
// omitted.
//
// Overlap uses half-open intervals with strict inequalities, so a session may
// begin exactly when another ends. Slots are offered as long as their start
// is inside working hours; a long session type may run past DayEndHour.
func ComputeAvailableSlots(sessions []SessionInterval, durationMinutes int, windowStart time.Time, policy Policy) ([]DaySlots, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, &ConfigurationError{Field: "duration_minutes", Reason: "must be positive"}
	}

	duration := time.Duration(durationMinutes) * time.Minute

	blocking := make([]SessionInterval, 0, len(sessions))
	for _, s := range sessions {
		if s.Status.Blocks() {
			blocking = append(blocking, s)
		}
	}
	sort.Slice(blocking, func(i, j int) bool { return blocking[i].Start.Before(blocking[j].Start) })

	start := windowStart.In(policy.Location)
	firstDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, policy.Location)

	var out []DaySlots
	for i := 0; i < policy.WindowDays; i++ {
		day := firstDay.AddDate(0, 0, i)
		if !policy.IncludeWeekends {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}

		var daySlots []time.Time
		dayEnd := day.Add(time.Duration(policy.DayEndHour) * time.Hour)
		granularity := time.Duration(policy.SlotGranularityMinutes) * time.Minute
		for candidate := day.Add(time.Duration(policy.DayStartHour) * time.Hour); candidate.Before(dayEnd); candidate = candidate.Add(granularity) {
			if candidate.Before(windowStart) {
				continue
			}
			if overlapsAny(blocking, candidate, candidate.Add(duration)) {
				continue
			}
			daySlots = append(daySlots, candidate)
		}
		if len(daySlots) > 0 {
			out = append(out, DaySlots{Day: day, Slots: daySlots})
		}
	}
	return out, nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant. Strict inequalities keep back-to-back intervals non-conflicting.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func overlapsAny(sessions []SessionInterval, start, end time.Time) bool {
	for _, s := range sessions {
		if Overlaps(start, end, s.Start, s.End) {
			return true
		}
	}
	return false
}
