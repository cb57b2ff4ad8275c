package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/habitrack/pkg/entity"
)

// HabitRequest carries user-editable habit attributes for create and update.
type HabitRequest struct {
	Title        string     `validate:"required,max=100"`
	Color        string     `validate:"required,max=32"`
	RepeatMode   string     `validate:"required,oneof=Daily Weekly Everyday"`
	TimeOfDay    string     `validate:"required,oneof=Anytime Morning Afternoon Evening"`
	Reminder     bool
	ReminderTime *time.Time
}

type HabitsServiceI interface {
	// Validates request and stores a new habit owned by uid
	CreateHabit(ctx context.Context, uid uuid.UUID, req *HabitRequest) (*entity.Habit, error)
	GetHabit(ctx context.Context, id, uid uuid.UUID) (*entity.Habit, error)
	// Lists user's habits in creation order
	ListHabits(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error)
	UpdateHabit(ctx context.Context, id, uid uuid.UUID, req *HabitRequest) (*entity.Habit, error)
	DeleteHabit(ctx context.Context, id, uid uuid.UUID) error
	// Applies completed, skipped or pending to today's key
	SetStatus(ctx context.Context, id, uid uuid.UUID, status string) (*entity.Habit, error)
	GetStatistics(ctx context.Context, uid uuid.UUID) (*entity.Statistics, error)
}

type UserServiceI interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type RecommendationServiceI interface {
	// Sends user's profile and habit titles to the recommendation model
	Recommend(ctx context.Context, uid uuid.UUID) (*entity.Recommendations, error)
}

// RecommenderI is the outbound client of the recommendation model.
type RecommenderI interface {
	Recommend(ctx context.Context, req *entity.RecommendationRequest) (*entity.Recommendations, error)
}
