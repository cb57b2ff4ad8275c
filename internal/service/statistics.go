package service

import (
	"github.com/limbo/habitrack/pkg/daykey"
	"github.com/limbo/habitrack/pkg/entity"
)

const statisticsWindow = 7

// Aggregate summarizes habits for today and the trailing week ending with
// today. Every day is classified once through Habit.StateOn.
func Aggregate(habits []*entity.Habit, today string) (*entity.Statistics, error) {
	window, err := daykey.Window(today, statisticsWindow)
	if err != nil {
		return nil, err
	}
	stats := &entity.Statistics{
		TotalHabits:      len(habits),
		Today:            today,
		Window:           window,
		WeeklyCompleted:  make([]int, statisticsWindow),
		WeeklySkipped:    make([]int, statisticsWindow),
		WeeklyIncomplete: make([]int, statisticsWindow),
	}
	completed := newLeaderboard()
	skipped := newLeaderboard()
	for _, h := range habits {
		switch h.StateOn(today) {
		case entity.DayCompleted:
			stats.CompletedToday++
		case entity.DayPending:
			stats.PendingToday++
		case entity.DaySkipped:
			stats.SkippedToday++
		}
		for i, day := range window {
			switch h.StateOn(day) {
			case entity.DayCompleted:
				stats.WeeklyCompleted[i]++
				completed.add(h.Title)
			case entity.DaySkipped:
				stats.WeeklySkipped[i]++
				skipped.add(h.Title)
			case entity.DayIncomplete:
				stats.WeeklyIncomplete[i]++
			}
		}
	}
	stats.MostCompletedHabit = completed.top()
	stats.MostSkippedHabit = skipped.top()
	return stats, nil
}

// leaderboard counts per title and remembers first-seen order for ties.
type leaderboard struct {
	counts map[string]int
	order  []string
}

func newLeaderboard() *leaderboard {
	return &leaderboard{counts: make(map[string]int)}
}

func (l *leaderboard) add(title string) {
	if _, ok := l.counts[title]; !ok {
		l.order = append(l.order, title)
	}
	l.counts[title]++
}

func (l *leaderboard) top() *string {
	var (
		best  string
		count int
	)
	for _, title := range l.order {
		if l.counts[title] > count {
			best, count = title, l.counts[title]
		}
	}
	if count == 0 {
		return nil
	}
	return &best
}
