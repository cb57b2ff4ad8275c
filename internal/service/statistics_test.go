package service_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/limbo/habitrack/internal/service"
	"github.com/limbo/habitrack/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHabit(title string) *entity.Habit {
	h := &entity.Habit{ID: uuid.New(), Title: title, RepeatMode: entity.RepeatDaily, Status: entity.HabitPending}
	h.EnsureMaps()
	return h
}

func strPtr(s string) *string {
	return &s
}

func TestAggregateRunMeditate(t *testing.T) {
	run := newHabit("Run")
	run.Completed["2024-01-08"] = true
	run.Completed["2024-01-10"] = true
	run.Incomplete["2024-01-09"] = true

	meditate := newHabit("Meditate")
	for _, d := range []string{"2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10"} {
		meditate.Skipped[d] = true
	}
	// outside the window
	meditate.Completed["2024-01-01"] = true
	meditate.Completed["2024-01-02"] = true
	meditate.Completed["2024-01-03"] = true

	stats, err := service.Aggregate([]*entity.Habit{run, meditate}, "2024-01-10")
	require.NoError(t, err)
	want := &entity.Statistics{
		TotalHabits:        2,
		Today:              "2024-01-10",
		Window:             []string{"2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10"},
		CompletedToday:     1,
		PendingToday:       0,
		SkippedToday:       1,
		WeeklyCompleted:    []int{0, 0, 0, 0, 1, 0, 1},
		WeeklySkipped:      []int{0, 0, 1, 1, 1, 1, 1},
		WeeklyIncomplete:   []int{0, 0, 0, 0, 0, 1, 0},
		MostCompletedHabit: strPtr("Run"),
		MostSkippedHabit:   strPtr("Meditate"),
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateFirstSeenWinsTie(t *testing.T) {
	a, b, c := newHabit("A"), newHabit("B"), newHabit("C")
	for _, d := range []string{"2024-01-04", "2024-01-06", "2024-01-08"} {
		a.Completed[d] = true
	}
	for _, d := range []string{"2024-01-05", "2024-01-07", "2024-01-10"} {
		b.Completed[d] = true
	}
	c.Completed["2024-01-09"] = true

	stats, err := service.Aggregate([]*entity.Habit{a, b, c}, "2024-01-10")
	require.NoError(t, err)
	require.NotNil(t, stats.MostCompletedHabit)
	assert.Equal(t, "A", *stats.MostCompletedHabit)

	stats, err = service.Aggregate([]*entity.Habit{b, a, c}, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, "B", *stats.MostCompletedHabit)
	assert.Nil(t, stats.MostSkippedHabit)
}

func TestAggregateCanonicalState(t *testing.T) {
	today := "2024-01-10"
	h := newHabit("Read")
	// legacy record holding the day twice
	h.Completed[today] = true
	h.Skipped[today] = true
	p := newHabit("Walk")
	p.Pending[today] = true
	p.Incomplete[today] = true
	empty := newHabit("Stretch")

	stats, err := service.Aggregate([]*entity.Habit{h, p, empty}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 0, stats.SkippedToday)
	assert.Equal(t, 1, stats.PendingToday)
	assert.LessOrEqual(t, stats.CompletedToday+stats.PendingToday+stats.SkippedToday, stats.TotalHabits)
	assert.Equal(t, 0, stats.WeeklyIncomplete[6])
	assert.Equal(t, 0, stats.WeeklySkipped[6])
}

func TestAggregateWindowShape(t *testing.T) {
	h := newHabit("Drink Water")
	h.Completed["2024-03-01"] = true
	stats, err := service.Aggregate([]*entity.Habit{h}, "2024-03-01")
	require.NoError(t, err)
	require.Len(t, stats.Window, 7)
	assert.Len(t, stats.WeeklyCompleted, 7)
	assert.Len(t, stats.WeeklySkipped, 7)
	assert.Len(t, stats.WeeklyIncomplete, 7)
	assert.Equal(t, "2024-02-24", stats.Window[0])
	assert.Equal(t, "2024-03-01", stats.Window[6])
	assert.Equal(t, stats.CompletedToday, stats.WeeklyCompleted[6])
}

func TestAggregateEmpty(t *testing.T) {
	stats, err := service.Aggregate(nil, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalHabits)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0}, stats.WeeklyCompleted)
	assert.Nil(t, stats.MostCompletedHabit)
	assert.Nil(t, stats.MostSkippedHabit)

	_, err = service.Aggregate(nil, "10-01-2024")
	assert.Error(t, err)
}
