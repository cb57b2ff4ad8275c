package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/internal/repository"
	"github.com/limbo/habitrack/pkg/daykey"
	"github.com/limbo/habitrack/pkg/entity"
)

type HabitsService struct {
	repo  repository.HabitsRepositoryI
	clock daykey.Clock
}

func NewHabitsService(habitsRepo repository.HabitsRepositoryI, clock daykey.Clock) *HabitsService {
	if habitsRepo == nil {
		log.Fatal("provided nil habitsRepo")
	}
	if clock == nil {
		clock = daykey.SystemClock{}
	}
	return &HabitsService{
		repo:  habitsRepo,
		clock: clock,
	}
}

func repoError(err error) error {
	if errors.Is(err, errorvalues.ErrHabitNotFound) || errors.Is(err, errorvalues.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("habits repository error: %w", err)
}

func (req *HabitRequest) apply(h *entity.Habit) {
	h.Title = req.Title
	h.Color = req.Color
	h.RepeatMode = entity.RepeatMode(req.RepeatMode)
	h.TimeOfDay = entity.TimeOfDay(req.TimeOfDay)
	h.Reminder = req.Reminder
	// Reminder time only makes sense while the reminder is on
	h.ReminderTime = nil
	if req.Reminder {
		h.ReminderTime = req.ReminderTime
	}
}

func (hs *HabitsService) CreateHabit(ctx context.Context, uid uuid.UUID, req *HabitRequest) (*entity.Habit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	h := entity.Habit{
		UserID: uid,
		Status: entity.HabitPending,
	}
	req.apply(&h)
	h.EnsureMaps()
	if err := hs.repo.Create(ctx, &h); err != nil {
		return nil, repoError(err)
	}
	return &h, nil
}

func (hs *HabitsService) GetHabit(ctx context.Context, id, uid uuid.UUID) (*entity.Habit, error) {
	habit, err := hs.repo.GetByID(ctx, id, uid)
	if err != nil {
		return nil, repoError(err)
	}
	return habit, nil
}

func (hs *HabitsService) ListHabits(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	habits, err := hs.repo.GetByUserID(ctx, uid)
	if err != nil {
		return nil, repoError(err)
	}
	return habits, nil
}

func (hs *HabitsService) UpdateHabit(ctx context.Context, id, uid uuid.UUID, req *HabitRequest) (*entity.Habit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	h := entity.Habit{
		ID:     id,
		UserID: uid,
	}
	req.apply(&h)
	if err := hs.repo.Update(ctx, &h); err != nil {
		return nil, repoError(err)
	}
	habit, err := hs.repo.GetByID(ctx, id, uid)
	if err != nil {
		return nil, repoError(err)
	}
	return habit, nil
}

func (hs *HabitsService) DeleteHabit(ctx context.Context, id, uid uuid.UUID) error {
	if err := hs.repo.Delete(ctx, id, uid); err != nil {
		return repoError(err)
	}
	return nil
}

// SetStatus applies the action to today's key. Ownership is checked under
// the habit lock so a foreign habit looks exactly like a missing one.
func (hs *HabitsService) SetStatus(ctx context.Context, id, uid uuid.UUID, status string) (*entity.Habit, error) {
	action, err := ParseAction(status)
	if err != nil {
		return nil, err
	}
	today := daykey.Today(hs.clock)
	habit, err := hs.repo.Mutate(ctx, id, func(h *entity.Habit) (bool, error) {
		if h.UserID != uid {
			return false, errorvalues.ErrHabitNotFound
		}
		return Apply(h, today, action)
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrValidation) {
			return nil, err
		}
		return nil, repoError(err)
	}
	return habit, nil
}

func (hs *HabitsService) GetStatistics(ctx context.Context, uid uuid.UUID) (*entity.Statistics, error) {
	habits, err := hs.repo.GetByUserID(ctx, uid)
	if err != nil {
		return nil, repoError(err)
	}
	return Aggregate(habits, daykey.Today(hs.clock))
}
