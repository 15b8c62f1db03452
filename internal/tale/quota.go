package tale

import "time"

// Usage tracks story-generation counters against the active plan.
// UsedToday is only meaningful while DaySignature matches the current
// day; the tracker resets it lazily on the next check.
type Usage struct {
	PlanID        string `json:"plan_id"`
	UsedThisMonth int    `json:"used_this_month"`
	UsedToday     int    `json:"used_today"`
	DaySignature  string `json:"day_signature"`
}

// daySignature formats t as the calendar-day key used for rollover.
func daySignature(t time.Time) string {
	return t.Format("2006-01-02")
}

// Tracker decides whether a generation request may proceed and updates
// counters once one succeeds. Rollover is lazy: there is no background
// timer, the day comparison happens on every check.
type Tracker struct {
	clock   Clock
	catalog *Catalog
	usage   Usage
}

// NewTracker creates a tracker for the given usage state. A nil usage
// starts fresh on the free plan.
func NewTracker(clock Clock, catalog *Catalog, usage *Usage) *Tracker {
	t := &Tracker{clock: clock, catalog: catalog}
	if usage != nil {
		t.usage = *usage
	} else {
		t.usage = Usage{PlanID: PlanFree}
	}
	return t
}

// rollover resets stale counters. Must run before every quota check so a
// comparison never uses a previous day's count. A month change also
// clears the monthly counter; both facts derive from the one signature.
func (t *Tracker) rollover() {
	today := daySignature(t.clock.Now())
	if t.usage.DaySignature == today {
		return
	}
	if len(t.usage.DaySignature) >= 7 && len(today) >= 7 && t.usage.DaySignature[:7] != today[:7] {
		t.usage.UsedThisMonth = 0
	}
	t.usage.UsedToday = 0
	t.usage.DaySignature = today
}

// CanGenerate reports whether another story may be generated now.
// Returns ErrDailyLimit or ErrMonthlyLimit; the two are distinct because
// their user-facing remedies differ (wait vs. upgrade).
func (t *Tracker) CanGenerate() error {
	t.rollover()
	plan := t.catalog.Plan(t.usage.PlanID)
	if t.usage.UsedToday >= plan.DailyStoryLimit {
		return ErrDailyLimit
	}
	if t.usage.UsedThisMonth >= plan.MonthlyStoryLimit {
		return ErrMonthlyLimit
	}
	return nil
}

// RecordGeneration increments both counters. Call only after a
// generation command fully succeeded.
func (t *Tracker) RecordGeneration() {
	t.rollover()
	t.usage.UsedToday++
	t.usage.UsedThisMonth++
}

// SetPlan switches the active plan. Counters are kept; a downgrade can
// leave usage above the new limits until the next rollover.
func (t *Tracker) SetPlan(planID string) {
	t.usage.PlanID = planID
}

// Usage returns a copy of the current usage state with rollover applied.
func (t *Tracker) Usage() Usage {
	t.rollover()
	return t.usage
}

// Plan returns the active plan's catalog entry.
func (t *Tracker) Plan() Plan {
	return t.catalog.Plan(t.usage.PlanID)
}
