package rollover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/internal/repository"
	"github.com/limbo/habitrack/internal/service"
	"github.com/limbo/habitrack/pkg/daykey"
	"github.com/limbo/habitrack/pkg/entity"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = time.Minute
	DefaultWorkers  = 8
)

type Config struct {
	Interval time.Duration
	Workers  int
}

// Report sums up one rollover of one day.
type Report struct {
	Day     string `json:"day"`
	Scanned int    `json:"scanned"`
	Marked  int    `json:"marked"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// Job marks daily habits left without a status as incomplete once their day has ended.
type Job struct {
	repo        repository.HabitsRepositoryI
	checkpoints repository.RolloverCheckpointRepositoryI
	clock       daykey.Clock
	logger      *slog.Logger
	interval    time.Duration
	workers     int

	mu sync.Mutex
	// first day not yet rolled over for every habit, "" until the checkpoint is loaded
	next string
}

// New builds the job. With nil checkpoints progress is kept in memory only and
// a fresh job starts from yesterday.
func New(repo repository.HabitsRepositoryI, checkpoints repository.RolloverCheckpointRepositoryI, clock daykey.Clock, logger *slog.Logger, cfg Config) *Job {
	if clock == nil {
		clock = daykey.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Job{
		repo:        repo,
		checkpoints: checkpoints,
		clock:       clock,
		logger:      logger.With(slog.String("job", "rollover")),
		interval:    cfg.Interval,
		workers:     cfg.Workers,
	}
}

// RunDay rolls over a single day for every daily habit. A failing habit is
// logged and counted, the rest still run. The error is only about loading
// the habits.
func (j *Job) RunDay(ctx context.Context, day string) (Report, error) {
	report := Report{Day: day}
	if _, err := daykey.Parse(day); err != nil {
		return report, err
	}
	habits, err := j.repo.GetByRepeatMode(ctx, entity.RepeatDaily)
	if err != nil {
		return report, fmt.Errorf("loading daily habits error: %w", err)
	}
	report.Scanned = len(habits)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(j.workers)
	for _, h := range habits {
		id := h.ID
		g.Go(func() error {
			marked, err := j.rollover(ctx, id, day)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				j.logger.Error("rollover failed for habit",
					slog.String("habit_id", id.String()),
					slog.String("day", day),
					slog.String("error", err.Error()))
			case marked:
				report.Marked++
			default:
				report.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	j.logger.Info("rollover finished",
		slog.String("day", day),
		slog.Int("scanned", report.Scanned),
		slog.Int("marked", report.Marked),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (j *Job) rollover(ctx context.Context, id uuid.UUID, day string) (bool, error) {
	marked := false
	_, err := j.repo.Mutate(ctx, id, func(h *entity.Habit) (bool, error) {
		// repeat mode may have changed since the habits were listed
		if h.RepeatMode != entity.RepeatDaily {
			return false, nil
		}
		changed, err := service.Apply(h, day, service.ActionRollover)
		if err != nil {
			return false, err
		}
		if changed {
			now := j.clock.Now()
			h.LastChecked = &now
		}
		marked = changed
		return changed, nil
	})
	if errors.Is(err, errorvalues.ErrHabitNotFound) {
		// deleted in the meantime
		return false, nil
	}
	return marked, err
}

// Poll rolls over every day that ended since the last day finished without
// failures. Without a stored checkpoint it starts from yesterday. A day with
// failed habits or unloadable habits stays open and is run again on the next
// poll together with every day after it.
func (j *Job) Poll(ctx context.Context) ([]Report, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	today := daykey.Today(j.clock)
	if j.next == "" {
		next, err := j.start(ctx, today)
		if err != nil {
			return nil, err
		}
		j.next = next
	}

	reports := make([]Report, 0, 1)
	open := false
	for day := j.next; ; {
		ahead, err := daykey.Between(day, today)
		if err != nil {
			return reports, err
		}
		if ahead <= 0 {
			return reports, nil
		}
		report, err := j.RunDay(ctx, day)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if report.Failed > 0 && !open {
			open = true
			j.logger.Warn("rollover day left open for retry",
				slog.String("day", day),
				slog.Int("failed", report.Failed))
		}
		if day, err = daykey.AddDays(day, 1); err != nil {
			return reports, err
		}
		if !open {
			j.next = day
			j.save(ctx, report.Day)
		}
	}
}

func (j *Job) start(ctx context.Context, today string) (string, error) {
	if j.checkpoints != nil {
		last, err := j.checkpoints.LastRolledDay(ctx)
		if err != nil {
			return "", fmt.Errorf("loading rollover checkpoint error: %w", err)
		}
		if last != "" {
			return daykey.AddDays(last, 1)
		}
	}
	return daykey.AddDays(today, -1)
}

// save stores the checkpoint. Write errors are only logged, the in-memory
// cursor has already moved on.
func (j *Job) save(ctx context.Context, day string) {
	if j.checkpoints == nil {
		return
	}
	if err := j.checkpoints.SaveRolledDay(ctx, day); err != nil {
		j.logger.Error("saving rollover checkpoint failed",
			slog.String("day", day),
			slog.String("error", err.Error()))
	}
}

// Run polls on every tick until ctx is done.
func (j *Job) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("rollover job started", slog.Duration("interval", j.interval))
	j.poll(ctx)
	for {
		select {
		case <-ticker.C:
			j.poll(ctx)
		case <-ctx.Done():
			j.logger.Info("rollover job stopped")
			return nil
		}
	}
}

func (j *Job) poll(ctx context.Context) {
	if _, err := j.Poll(ctx); err != nil && ctx.Err() == nil {
		j.logger.Error("rollover poll failed", slog.String("error", err.Error()))
	}
}
