package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/pkg/entity"
)

// MemoryStorage keeps users and habits in process memory. Every read hands out
// copies and every mutation runs under the write lock, so callers observe the
// same atomicity as with the postgres repositories.
type MemoryStorage struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*entity.User
	habits map[uuid.UUID]*entity.Habit
	order  []uuid.UUID
	rolled string
	now    func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:  make(map[uuid.UUID]*entity.User),
		habits: make(map[uuid.UUID]*entity.Habit),
		now:    time.Now,
	}
}

// PutUser stores or replaces a profile.
func (s *MemoryStorage) PutUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
}

func (s *MemoryStorage) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, errorvalues.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

func (s *MemoryStorage) LastRolledDay(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rolled, nil
}

// SaveRolledDay keeps the later of the stored and the given day. Keys compare
// lexically in calendar order.
func (s *MemoryStorage) SaveRolledDay(ctx context.Context, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if day > s.rolled {
		s.rolled = day
	}
	return nil
}

// Habits exposes the habit half of the storage as HabitsRepositoryI.
func (s *MemoryStorage) Habits() *MemoryHabitsRepository {
	return &MemoryHabitsRepository{s: s}
}

type MemoryHabitsRepository struct {
	s *MemoryStorage
}

func (r *MemoryHabitsRepository) Create(ctx context.Context, habit *entity.Habit) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[habit.UserID]; !ok {
		return errorvalues.ErrUserNotFound
	}
	habit.ID = uuid.New()
	habit.CreatedAt = s.now()
	habit.Version = 1
	habit.EnsureMaps()
	s.habits[habit.ID] = habit.Clone()
	s.order = append(s.order, habit.ID)
	return nil
}

func (r *MemoryHabitsRepository) GetByID(ctx context.Context, id, uid uuid.UUID) (*entity.Habit, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[id]
	if !ok || h.UserID != uid {
		return nil, errorvalues.ErrHabitNotFound
	}
	return h.Clone(), nil
}

func (r *MemoryHabitsRepository) GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	return r.filter(func(h *entity.Habit) bool { return h.UserID == uid }), nil
}

func (r *MemoryHabitsRepository) GetByRepeatMode(ctx context.Context, mode entity.RepeatMode) ([]*entity.Habit, error) {
	return r.filter(func(h *entity.Habit) bool { return h.RepeatMode == mode }), nil
}

func (r *MemoryHabitsRepository) filter(keep func(h *entity.Habit) bool) []*entity.Habit {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	habits := make([]*entity.Habit, 0)
	for _, id := range s.order {
		h, ok := s.habits[id]
		if ok && keep(h) {
			habits = append(habits, h.Clone())
		}
	}
	return habits
}

func (r *MemoryHabitsRepository) Update(ctx context.Context, habit *entity.Habit) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[habit.ID]
	if !ok || h.UserID != habit.UserID {
		return errorvalues.ErrHabitNotFound
	}
	h.Title = habit.Title
	h.Color = habit.Color
	h.RepeatMode = habit.RepeatMode
	h.TimeOfDay = habit.TimeOfDay
	h.Reminder = habit.Reminder
	h.ReminderTime = nil
	if habit.ReminderTime != nil {
		t := *habit.ReminderTime
		h.ReminderTime = &t
	}
	h.Version++
	habit.Version = h.Version
	return nil
}

func (r *MemoryHabitsRepository) Delete(ctx context.Context, id, uid uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok || h.UserID != uid {
		return errorvalues.ErrHabitNotFound
	}
	delete(s.habits, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryHabitsRepository) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*entity.Habit, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	work := h.Clone()
	changed, err := fn(work)
	if err != nil {
		return nil, err
	}
	if !changed {
		return work, nil
	}
	work.Version++
	s.habits[id] = work.Clone()
	return work, nil
}
