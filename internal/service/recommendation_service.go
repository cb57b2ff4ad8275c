package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/internal/repository"
	"github.com/limbo/habitrack/pkg/entity"
)

type RecommendationService struct {
	users  repository.UsersRepositoryI
	habits repository.HabitsRepositoryI
	client RecommenderI
}

func NewRecommendationService(users repository.UsersRepositoryI, habits repository.HabitsRepositoryI, client RecommenderI) *RecommendationService {
	return &RecommendationService{
		users:  users,
		habits: habits,
		client: client,
	}
}

// Recommend only reads habit data; nothing is written back.
func (rs *RecommendationService) Recommend(ctx context.Context, uid uuid.UUID) (*entity.Recommendations, error) {
	user, err := rs.users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("users repository error: %w", err)
	}
	habits, err := rs.habits.GetByUserID(ctx, uid)
	if err != nil {
		return nil, repoError(err)
	}
	titles := make([]string, 0, len(habits))
	for _, h := range habits {
		titles = append(titles, strings.TrimSpace(h.Title))
	}
	recs, err := rs.client.Recommend(ctx, &entity.RecommendationRequest{
		Age:       user.Age,
		Gender:    user.Gender,
		Lifestyle: user.Lifestyle,
		Habits:    titles,
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}
