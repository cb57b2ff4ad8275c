package entity

import (
	"time"

	"github.com/google/uuid"
)

type RepeatMode string

const (
	RepeatDaily    RepeatMode = "Daily"
	RepeatWeekly   RepeatMode = "Weekly"
	RepeatEveryday RepeatMode = "Everyday"
)

type TimeOfDay string

const (
	TimeAnytime   TimeOfDay = "Anytime"
	TimeMorning   TimeOfDay = "Morning"
	TimeAfternoon TimeOfDay = "Afternoon"
	TimeEvening   TimeOfDay = "Evening"
)

// HabitStatus is the overall status of a habit, updated by the last transition.
type HabitStatus string

const (
	HabitPending    HabitStatus = "pending"
	HabitCompleted  HabitStatus = "completed"
	HabitIncomplete HabitStatus = "incomplete"
)

// DayState is the canonical status of a habit on one calendar day.
type DayState string

const (
	DayUnset      DayState = ""
	DayCompleted  DayState = "completed"
	DaySkipped    DayState = "skipped"
	DayPending    DayState = "pending"
	DayIncomplete DayState = "incomplete"
)

// DayMap records presence of a status per day key.
type DayMap map[string]bool

func (m DayMap) Has(day string) bool {
	return m[day]
}

// Count returns how many of days are present in m.
func (m DayMap) Count(days []string) int {
	n := 0
	for _, d := range days {
		if m[d] {
			n++
		}
	}
	return n
}

type User struct {
	ID        uuid.UUID `json:"uid"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Lifestyle string    `json:"lifestyle"`
}

type Habit struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"uid"`
	Title        string      `json:"title"`
	Color        string      `json:"color"`
	RepeatMode   RepeatMode  `json:"repeat_mode"`
	TimeOfDay    TimeOfDay   `json:"time_of_day"`
	Status       HabitStatus `json:"status"`
	Reminder     bool        `json:"reminder"`
	ReminderTime *time.Time  `json:"reminder_time"`
	Completed    DayMap      `json:"completed"`
	Skipped      DayMap      `json:"skipped"`
	Pending      DayMap      `json:"pending"`
	Incomplete   DayMap      `json:"incomplete"`
	CreatedAt    time.Time   `json:"created_at"`
	LastChecked  *time.Time  `json:"last_checked"`
	Version      int64       `json:"version"`
}

// EnsureMaps makes sure all day maps are allocated.
func (h *Habit) EnsureMaps() {
	if h.Completed == nil {
		h.Completed = DayMap{}
	}
	if h.Skipped == nil {
		h.Skipped = DayMap{}
	}
	if h.Pending == nil {
		h.Pending = DayMap{}
	}
	if h.Incomplete == nil {
		h.Incomplete = DayMap{}
	}
}

// StateOn is the single read path for a day's status. If more than one map
// holds the day, completed wins over pending, pending over skipped and
// skipped over incomplete.
func (h *Habit) StateOn(day string) DayState {
	switch {
	case h.Completed.Has(day):
		return DayCompleted
	case h.Pending.Has(day):
		return DayPending
	case h.Skipped.Has(day):
		return DaySkipped
	case h.Incomplete.Has(day):
		return DayIncomplete
	}
	return DayUnset
}

// Days returns the canonical state of every day that has one.
func (h *Habit) Days() map[string]DayState {
	days := make(map[string]DayState)
	for _, m := range []DayMap{h.Completed, h.Skipped, h.Pending, h.Incomplete} {
		for d, ok := range m {
			if ok {
				days[d] = h.StateOn(d)
			}
		}
	}
	return days
}

// Clone returns a deep copy so stores never hand out shared maps.
func (h *Habit) Clone() *Habit {
	c := *h
	c.Completed = cloneDayMap(h.Completed)
	c.Skipped = cloneDayMap(h.Skipped)
	c.Pending = cloneDayMap(h.Pending)
	c.Incomplete = cloneDayMap(h.Incomplete)
	if h.ReminderTime != nil {
		t := *h.ReminderTime
		c.ReminderTime = &t
	}
	if h.LastChecked != nil {
		t := *h.LastChecked
		c.LastChecked = &t
	}
	return &c
}

func cloneDayMap(m DayMap) DayMap {
	c := make(DayMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

type Statistics struct {
	TotalHabits        int      `json:"total_habits"`
	Today              string   `json:"today"`
	Window             []string `json:"window"`
	CompletedToday     int      `json:"completed_today"`
	PendingToday       int      `json:"pending_today"`
	SkippedToday       int      `json:"skipped_today"`
	WeeklyCompleted    []int    `json:"weekly_completed"`
	WeeklySkipped      []int    `json:"weekly_skipped"`
	WeeklyIncomplete   []int    `json:"weekly_incomplete"`
	MostCompletedHabit *string  `json:"most_completed_habit"`
	MostSkippedHabit   *string  `json:"most_skipped_habit"`
}

type RecommendationRequest struct {
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Lifestyle string   `json:"lifestyle"`
	Habits    []string `json:"habits"`
}

type RecommendedHabit struct {
	Habit       string  `json:"habit"`
	Probability float64 `json:"probability"`
}

type Recommendations struct {
	RecommendedHabits []RecommendedHabit `json:"recommended_habits"`
}
