package service

import (
	"errors"
	"fmt"

	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/pkg/daykey"
	"github.com/limbo/habitrack/pkg/entity"
)

type Action string

const (
	ActionComplete Action = "completed"
	ActionSkip     Action = "skipped"
	ActionPending  Action = "pending"
	ActionRollover Action = "rollover"
)

// ParseAction accepts the user-facing actions only. Rollover is never
// requested by a user.
func ParseAction(status string) (Action, error) {
	switch a := Action(status); a {
	case ActionComplete, ActionSkip, ActionPending:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", errorvalues.ErrValidation, status)
}

type transition struct {
	Action Action `validate:"required,oneof=completed skipped pending rollover"`
}

// Apply moves the habit's state on day according to action and reports
// whether anything changed. Only day is touched; a day never returns to unset.
func Apply(h *entity.Habit, day string, action Action) (bool, error) {
	if _, err := daykey.Parse(day); err != nil {
		return false, errors.Join(errorvalues.ErrValidation, err)
	}
	if err := validateStruct(transition{Action: action}); err != nil {
		return false, err
	}
	h.EnsureMaps()
	if action == ActionRollover {
		if h.StateOn(day) != entity.DayUnset {
			return false, nil
		}
		h.Incomplete[day] = true
		h.Status = entity.HabitIncomplete
		return true, nil
	}

	target, status := entity.DayCompleted, entity.HabitCompleted
	switch action {
	case ActionSkip:
		target, status = entity.DaySkipped, h.Status
	case ActionPending:
		target, status = entity.DayPending, entity.HabitPending
	}
	changed := h.StateOn(day) != target || h.Status != status || spread(h, day)

	delete(h.Completed, day)
	delete(h.Skipped, day)
	delete(h.Pending, day)
	delete(h.Incomplete, day)
	switch target {
	case entity.DayCompleted:
		h.Completed[day] = true
	case entity.DaySkipped:
		h.Skipped[day] = true
	case entity.DayPending:
		h.Pending[day] = true
	}
	h.Status = status
	return changed, nil
}

// spread reports whether day is present in more than one map.
func spread(h *entity.Habit, day string) bool {
	n := 0
	for _, m := range []entity.DayMap{h.Completed, h.Skipped, h.Pending, h.Incomplete} {
		if m.Has(day) {
			n++
		}
	}
	return n > 1
}
