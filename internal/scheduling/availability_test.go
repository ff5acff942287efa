package scheduling

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// 2026-01-05 is a Monday, 2026-01-03 a Saturday.
var (
	monday   = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)
)

func testPolicy(windowDays int) Policy {
	p := DefaultPolicy(time.UTC)
	p.WindowDays = windowDays
	return p
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func session(start, end time.Time, status SessionStatus) SessionInterval {
	return SessionInterval{Start: start, End: end, Status: status}
}

func allSlots(days []DaySlots) []time.Time {
	var out []time.Time
	for _, d := range days {
		out = append(out, d.Slots...)
	}
	return out
}

func TestEmptyCalendarFullDay(t *testing.T) {
	windowStart := at(monday, 8, 0)

	got, err := ComputeAvailableSlots(nil, 50, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one day group, got %d", len(got))
	}
	slots := got[0].Slots
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for an empty Monday, got %d", len(slots))
	}
	if !slots[0].Equal(at(monday, 9, 0)) {
		t.Errorf("first slot = %s, want 09:00", slots[0])
	}
	if !slots[15].Equal(at(monday, 16, 30)) {
		t.Errorf("last slot = %s, want 16:30", slots[15])
	}
}

func TestExistingSessionBlocksOverlappingCandidates(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 9, 0), at(monday, 9, 50), StatusScheduled),
	}

	got, err := ComputeAvailableSlots(sessions, 50, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	slots := allSlots(got)
	for _, s := range slots {
		if s.Equal(at(monday, 9, 0)) || s.Equal(at(monday, 9, 30)) {
			t.Errorf("slot %s should be blocked by the 09:00-09:50 session", s)
		}
	}
	if len(slots) == 0 || !slots[0].Equal(at(monday, 10, 0)) {
		t.Fatalf("expected availability to resume at 10:00, got %v", slots)
	}
}

func TestLongerDurationBlocksEarlierCandidate(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 14, 0), at(monday, 14, 50), StatusScheduled),
	}

	got, err := ComputeAvailableSlots(sessions, 60, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	var has1300, has1330 bool
	for _, s := range allSlots(got) {
		if s.Equal(at(monday, 13, 0)) {
			has1300 = true
		}
		if s.Equal(at(monday, 13, 30)) {
			has1330 = true
		}
	}
	// [13:00,14:00) touches the session boundary only; [13:30,14:30) overlaps.
	if !has1300 {
		t.Error("13:00 should be offered: its interval ends exactly at 14:00")
	}
	if has1330 {
		t.Error("13:30 must be blocked: [13:30,14:30) overlaps [14:00,14:50)")
	}
}

func TestBackToBackAdjacencyIsNotAConflict(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 10, 0), at(monday, 11, 0), StatusScheduled),
	}

	got, err := ComputeAvailableSlots(sessions, 60, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	var has0900, has1100 bool
	for _, s := range allSlots(got) {
		if s.Equal(at(monday, 9, 0)) {
			has0900 = true
		}
		if s.Equal(at(monday, 11, 0)) {
			has1100 = true
		}
	}
	if !has0900 {
		t.Error("a slot ending exactly at an existing session's start must be offered")
	}
	if !has1100 {
		t.Error("a slot starting exactly at an existing session's end must be offered")
	}
}

func TestWeekendWindowYieldsNoSlots(t *testing.T) {
	windowStart := at(saturday, 8, 0)

	got, err := ComputeAvailableSlots(nil, 50, windowStart, testPolicy(2))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no slots across Saturday+Sunday, got %v", got)
	}
}

func TestWeekendSlotsResumeOnMonday(t *testing.T) {
	windowStart := at(saturday, 8, 0)

	got, err := ComputeAvailableSlots(nil, 50, windowStart, testPolicy(3))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected Monday only, got %d day groups", len(got))
	}
	if !got[0].Day.Equal(monday) {
		t.Errorf("day = %s, want Monday %s", got[0].Day, monday)
	}
	if len(got[0].Slots) != 16 {
		t.Errorf("expected full Monday, got %d slots", len(got[0].Slots))
	}
}

func TestIncludeWeekendsPolicy(t *testing.T) {
	policy := testPolicy(2)
	policy.IncludeWeekends = true

	got, err := ComputeAvailableSlots(nil, 50, at(saturday, 8, 0), policy)
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected Saturday and Sunday groups, got %d", len(got))
	}
}

func TestPastSlotsExcluded(t *testing.T) {
	// Mid-day window start: earlier slots of the same day must not appear.
	windowStart := at(monday, 12, 15)

	got, err := ComputeAvailableSlots(nil, 50, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	slots := allSlots(got)
	for _, s := range slots {
		if s.Before(windowStart) {
			t.Errorf("slot %s is before window start %s", s, windowStart)
		}
	}
	if len(slots) == 0 || !slots[0].Equal(at(monday, 12, 30)) {
		t.Fatalf("expected first slot 12:30, got %v", slots)
	}
}

func TestCancelledSessionFreesItsSlot(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 9, 0), at(monday, 9, 50), StatusCancelledByPatient),
	}

	got, err := ComputeAvailableSlots(sessions, 50, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	slots := allSlots(got)
	if len(slots) != 16 {
		t.Fatalf("cancelled session must not block, got %d slots", len(slots))
	}
}

func TestNoOverlapInvariant(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 9, 0), at(monday, 10, 0), StatusScheduled),
		session(at(monday, 13, 15), at(monday, 14, 5), StatusCompleted),
		session(at(monday, 16, 0), at(monday, 17, 0), StatusNoShow),
	}
	const duration = 50

	got, err := ComputeAvailableSlots(sessions, duration, windowStart, testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	for _, slot := range allSlots(got) {
		end := slot.Add(duration * time.Minute)
		for _, s := range sessions {
			if Overlaps(slot, end, s.Start, s.End) {
				t.Errorf("returned slot [%s,%s) overlaps session [%s,%s)", slot, end, s.Start, s.End)
			}
		}
	}
}

func TestDeterministicForIdenticalInputs(t *testing.T) {
	windowStart := at(monday, 8, 0)
	sessions := []SessionInterval{
		session(at(monday, 11, 0), at(monday, 11, 50), StatusScheduled),
	}

	first, err := ComputeAvailableSlots(sessions, 50, windowStart, testPolicy(5))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := ComputeAvailableSlots(sessions, 50, windowStart, testPolicy(5))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical output")
	}
}

func TestEmptyCalendarSlotCount(t *testing.T) {
	// Full 7-day window starting Monday 00:00: five working days of 16 slots.
	got, err := ComputeAvailableSlots(nil, 30, monday, testPolicy(7))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 working days, got %d", len(got))
	}
	if n := len(allSlots(got)); n != 5*16 {
		t.Fatalf("expected %d slots, got %d", 5*16, n)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Day.Before(got[i].Day) {
			t.Error("day groups must be in ascending order")
		}
	}
}

func TestTrailingSlotMayRunPastClosing(t *testing.T) {
	// Policy decision: slots are offered while their start is inside working
	// hours, even if the session would end after DayEndHour.
	got, err := ComputeAvailableSlots(nil, 90, at(monday, 8, 0), testPolicy(1))
	if err != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", err)
	}
	var has1630 bool
	for _, s := range allSlots(got) {
		if s.Equal(at(monday, 16, 30)) {
			has1630 = true
		}
	}
	if !has1630 {
		t.Error("16:30 start with a 90-minute session should still be offered")
	}
}

func TestInvalidInputs(t *testing.T) {
	windowStart := at(monday, 8, 0)

	tests := []struct {
		name     string
		duration int
		mutate   func(*Policy)
	}{
		{"zero duration", 0, nil},
		{"negative duration", -30, nil},
		{"inverted working hours", 50, func(p *Policy) { p.DayStartHour = 17; p.DayEndHour = 9 }},
		{"equal working hours", 50, func(p *Policy) { p.DayStartHour = 9; p.DayEndHour = 9 }},
		{"non-positive window", 50, func(p *Policy) { p.WindowDays = 0 }},
		{"zero granularity", 50, func(p *Policy) { p.SlotGranularityMinutes = 0 }},
		{"missing location", 50, func(p *Policy) { p.Location = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := testPolicy(1)
			if tt.mutate != nil {
				tt.mutate(&policy)
			}
			_, err := ComputeAvailableSlots(nil, tt.duration, windowStart, policy)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestTimezonePinsDayBoundaries(t *testing.T) {
	// Use a zone ahead of UTC so the calendar day differs from the UTC day.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	policy := DefaultPolicy(tokyo)
	policy.WindowDays = 1

	// 2026-01-04 22:00 UTC is Monday 07:00 in Tokyo.
	windowStart := time.Date(2026, time.January, 4, 22, 0, 0, 0, time.UTC)
	got, computeErr := ComputeAvailableSlots(nil, 50, windowStart, policy)
	if computeErr != nil {
		t.Fatalf("ComputeAvailableSlots returned error: %v", computeErr)
	}
	if len(got) != 1 {
		t.Fatalf("expected Tokyo Monday to produce slots, got %v", got)
	}
	if got[0].Day.Weekday() != time.Monday {
		t.Errorf("day resolved to %s, want Monday in Tokyo", got[0].Day.Weekday())
	}
	if len(got[0].Slots) != 16 {
		t.Errorf("expected 16 slots, got %d", len(got[0].Slots))
	}
}
