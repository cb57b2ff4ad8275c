package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/internal/service"
	"github.com/limbo/habitrack/pkg/entity"
	"github.com/limbo/habitrack/pkg/httputil"
)

const requestTimeout = 10 * time.Second

type HabitRequest struct {
	Title        string     `json:"title"`
	Color        string     `json:"color"`
	RepeatMode   string     `json:"repeat_mode"`
	TimeOfDay    string     `json:"time_of_day"`
	Reminder     bool       `json:"reminder"`
	ReminderTime *time.Time `json:"reminder_time"`
}

func (req *HabitRequest) toService() *service.HabitRequest {
	return &service.HabitRequest{
		Title:        req.Title,
		Color:        req.Color,
		RepeatMode:   req.RepeatMode,
		TimeOfDay:    req.TimeOfDay,
		Reminder:     req.Reminder,
		ReminderTime: req.ReminderTime,
	}
}

type StatusRequest struct {
	Status string `json:"status"`
}

type GetHabitsResponse struct {
	UserID string          `json:"uid"`
	Habits []*entity.Habit `json:"habits"`
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrValidation):
		logger.Error(op+" error: validation", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, errorvalues.ErrHabitNotFound):
		logger.Error(op + " error: habit not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "habit not found", nil)
	case errors.Is(err, errorvalues.ErrUserNotFound):
		logger.Error(op + " error: user not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, errorvalues.ErrUpstreamUnavailable):
		logger.Error(op+" error: upstream unavailable", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "recommendation service unavailable", nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while "+op, nil)
	}
}

func habitIDFromPath(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req HabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.CreateHabit(ctx, uid, req.toService())
	if err != nil {
		writeServiceError(w, logger, "creating habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("habit created", slog.String("habit_id", habit.ID.String()))
}

func (s *Server) GetHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get habits error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habits, err := s.habitsService.ListHabits(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "getting habits", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetHabitsResponse{
		UserID: uid.String(),
		Habits: habits,
	})
}

func (s *Server) GetHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	habitID, err := habitIDFromPath(r)
	if err != nil {
		logger.Error("get habit error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.GetHabit(ctx, habitID, uid)
	if err != nil {
		writeServiceError(w, logger, "getting habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("update habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	habitID, err := habitIDFromPath(r)
	if err != nil {
		logger.Error("update habit error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	var req HabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.UpdateHabit(ctx, habitID, uid, req.toService())
	if err != nil {
		writeServiceError(w, logger, "updating habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("habit updated", slog.String("habit_id", habitID.String()))
}

func (s *Server) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("delete habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	habitID, err := habitIDFromPath(r)
	if err != nil {
		logger.Error("delete habit error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err = s.habitsService.DeleteHabit(ctx, habitID, uid); err != nil {
		writeServiceError(w, logger, "deleting habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"deleted": true,
	})
	logger.Info("habit deleted", slog.String("habit_id", habitID.String()))
}

func (s *Server) SetStatus(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("set status error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	habitID, err := habitIDFromPath(r)
	if err != nil {
		logger.Error("set status error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	var req StatusRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("set status error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	habit, err := s.habitsService.SetStatus(ctx, habitID, uid, req.Status)
	if err != nil {
		writeServiceError(w, logger, "setting status", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("status set", slog.String("habit_id", habitID.String()), slog.String("status", req.Status))
}

func (s *Server) GetStatistics(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get statistics error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	stats, err := s.habitsService.GetStatistics(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "getting statistics", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, stats)
}

func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get recommendations error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	recs, err := s.recommendationService.Recommend(ctx, uid)
	if err != nil {
		writeServiceError(w, logger, "getting recommendations", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, recs)
}
