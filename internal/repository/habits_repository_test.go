package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/internal/repository"
	"github.com/limbo/habitrack/pkg/entity"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var habitColumns = []string{"id", "user_id", "title", "color", "repeat_mode", "time_of_day", "status", "reminder", "reminder_time", "created_at", "last_checked", "version"}

func habitRow(rows *pgxmock.Rows, h *entity.Habit) *pgxmock.Rows {
	return rows.AddRow(h.ID, h.UserID, h.Title, h.Color, string(h.RepeatMode), string(h.TimeOfDay), string(h.Status),
		h.Reminder, h.ReminderTime, h.CreatedAt, h.LastChecked, h.Version)
}

func testHabit(uid uuid.UUID) *entity.Habit {
	return &entity.Habit{
		ID:         uuid.New(),
		UserID:     uid,
		Title:      "Drink Water",
		Color:      "#00aaff",
		RepeatMode: entity.RepeatDaily,
		TimeOfDay:  entity.TimeMorning,
		Status:     entity.HabitPending,
		CreatedAt:  time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Version:    1,
	}
}

func TestCreateHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`INSERT INTO habits (user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, version;`)
	uid := uuid.New()
	newID := uuid.New()
	createdAt := time.Now()
	habit := entity.Habit{
		UserID:     uid,
		Title:      "Drink Water",
		Color:      "#00aaff",
		RepeatMode: entity.RepeatDaily,
		TimeOfDay:  entity.TimeMorning,
		Status:     entity.HabitPending,
	}
	args := []any{uid, habit.Title, habit.Color, "Daily", "Morning", "pending", false, (*time.Time)(nil)}
	testCases := []struct {
		Desc            string
		Error           error
		MockPrepareFunc func()
	}{
		{
			Desc:  "successfully created",
			Error: nil,
			MockPrepareFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "version"}).AddRow(newID, createdAt, int64(1)))
			},
		},
		{
			Desc:  "owner doesn't exist",
			Error: errorvalues.ErrUserNotFound,
			MockPrepareFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "23503"})
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("creating habit error: db error"),
			MockPrepareFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepareFunc()
			h := habit
			err := repo.Create(ctx, &h)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, newID, h.ID)
			assert.Equal(t, int64(1), h.Version)
			assert.NotNil(t, h.Completed)
			assert.NotNil(t, h.Incomplete)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabitByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE id = $1 AND user_id = $2;`)
	daysQuery := regexp.QuoteMeta(`SELECT day::text, status FROM habit_day_statuses WHERE habit_id = $1;`)
	uid := uuid.New()
	habit := testHabit(uid)
	testCases := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
		Check        func(t *testing.T, h *entity.Habit)
	}{
		{
			Desc:  "found with days",
			Error: nil,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(habit.ID, uid).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
				mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}).
					AddRow("2024-01-09", "incomplete").
					AddRow("2024-01-10", "completed"))
			},
			Check: func(t *testing.T, h *entity.Habit) {
				assert.Equal(t, habit.Title, h.Title)
				assert.Equal(t, entity.RepeatDaily, h.RepeatMode)
				assert.Equal(t, entity.DayIncomplete, h.StateOn("2024-01-09"))
				assert.Equal(t, entity.DayCompleted, h.StateOn("2024-01-10"))
				assert.Equal(t, entity.DayUnset, h.StateOn("2024-01-11"))
			},
		},
		{
			Desc:  "not found or foreign",
			Error: errorvalues.ErrHabitNotFound,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(habit.ID, uid).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("getting habit by id error: db error"),
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(habit.ID, uid).WillReturnError(errors.New("db error"))
			},
		},
		{
			Desc:  "days query error",
			Error: errors.New("getting habit days error: db error"),
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(habit.ID, uid).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
				mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			h, err := repo.GetByID(ctx, habit.ID, uid)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			tc.Check(t, h)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabitsByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE user_id = $1 ORDER BY created_at, id;`)
	daysQuery := regexp.QuoteMeta(`SELECT s.habit_id, s.day::text, s.status FROM habit_day_statuses s JOIN habits h ON h.id = s.habit_id WHERE h.user_id = $1;`)
	uid := uuid.New()
	first := testHabit(uid)
	second := testHabit(uid)
	second.Title = "Read"
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(habitColumns)
		habitRow(rows, first)
		habitRow(rows, second)
		mock.ExpectQuery(query).WithArgs(uid).WillReturnRows(rows)
		mock.ExpectQuery(daysQuery).WithArgs(uid).WillReturnRows(pgxmock.NewRows([]string{"habit_id", "day", "status"}).
			AddRow(first.ID, "2024-01-10", "completed").
			AddRow(second.ID, "2024-01-10", "skipped").
			AddRow(second.ID, "2024-01-09", "pending"))
		habits, err := repo.GetByUserID(ctx, uid)
		require.NoError(t, err)
		require.Len(t, habits, 2)
		assert.Equal(t, "Drink Water", habits[0].Title)
		assert.Equal(t, "Read", habits[1].Title)
		assert.True(t, habits[0].Completed.Has("2024-01-10"))
		assert.True(t, habits[1].Skipped.Has("2024-01-10"))
		assert.True(t, habits[1].Pending.Has("2024-01-09"))
	})
	t.Run("no habits skips days query", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uid).WillReturnRows(pgxmock.NewRows(habitColumns))
		habits, err := repo.GetByUserID(ctx, uid)
		require.NoError(t, err)
		assert.Empty(t, habits)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uid).WillReturnError(errors.New("db error"))
		_, err := repo.GetByUserID(ctx, uid)
		assert.EqualError(t, err, "getting habits by uid error: db error")
		assert.ErrorIs(t, err, errorvalues.ErrPersistence)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabitsByRepeatMode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE repeat_mode = $1 ORDER BY created_at, id;`)
	ctx := context.Background()
	h := testHabit(uuid.New())
	mock.ExpectQuery(query).WithArgs("Daily").WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), h))
	habits, err := repo.GetByRepeatMode(ctx, entity.RepeatDaily)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, h.ID, habits[0].ID)

	mock.ExpectQuery(query).WithArgs("Daily").WillReturnError(errors.New("db error"))
	_, err = repo.GetByRepeatMode(ctx, entity.RepeatDaily)
	assert.EqualError(t, err, "getting habits by repeat mode error: db error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`UPDATE habits SET title = $1, color = $2, repeat_mode = $3, time_of_day = $4, reminder = $5, reminder_time = $6, version = version + 1 WHERE id = $7 AND user_id = $8 RETURNING version;`)
	h := testHabit(uuid.New())
	args := []any{h.Title, h.Color, "Daily", "Morning", false, (*time.Time)(nil), h.ID, h.UserID}
	testCases := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "successful",
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(2)))
			},
		},
		{
			Desc:  "not found",
			Error: errorvalues.ErrHabitNotFound,
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("updating habit error: db error"),
			MockPrepFunc: func() {
				mock.ExpectQuery(query).WithArgs(args...).WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			upd := *h
			err := repo.Update(ctx, &upd)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(2), upd.Version)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewHabitsRepo(mock)
	query := regexp.QuoteMeta(`DELETE FROM habits WHERE id = $1 AND user_id = $2;`)
	id, uid := uuid.New(), uuid.New()
	testCases := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc: "successful",
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(id, uid).WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			Desc:  "not found",
			Error: errorvalues.ErrHabitNotFound,
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(id, uid).WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
		},
		{
			Desc:  "db error",
			Error: errors.New("deleting habit error: db error"),
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(id, uid).WillReturnError(errors.New("db error"))
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := repo.Delete(ctx, id, uid)
			if tc.Error != nil {
				assert.EqualError(t, err, tc.Error.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutateHabit(t *testing.T) {
	lockQuery := regexp.QuoteMeta(`SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE id = $1 FOR UPDATE;`)
	daysQuery := regexp.QuoteMeta(`SELECT day::text, status FROM habit_day_statuses WHERE habit_id = $1;`)
	upsert := regexp.QuoteMeta(`INSERT INTO habit_day_statuses (habit_id, day, status) VALUES ($1, $2::date, $3) ON CONFLICT (habit_id, day) DO UPDATE SET status = EXCLUDED.status;`)
	deleteDay := regexp.QuoteMeta(`DELETE FROM habit_day_statuses WHERE habit_id = $1 AND day = $2::date;`)
	updateStatus := regexp.QuoteMeta(`UPDATE habits SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3;`)
	ctx := context.Background()
	habit := testHabit(uuid.New())

	complete := func(h *entity.Habit) (bool, error) {
		delete(h.Pending, "2024-01-10")
		h.Completed["2024-01-10"] = true
		h.Status = entity.HabitCompleted
		return true, nil
	}

	t.Run("changed day is upserted and version bumped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
		mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}).
			AddRow("2024-01-09", "incomplete").
			AddRow("2024-01-10", "pending"))
		mock.ExpectExec(upsert).WithArgs(habit.ID, "2024-01-10", "completed").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(updateStatus).WithArgs("completed", pgxmock.AnyArg(), habit.ID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		h, err := repo.Mutate(ctx, habit.ID, complete)
		require.NoError(t, err)
		assert.Equal(t, int64(2), h.Version)
		assert.Equal(t, entity.DayCompleted, h.StateOn("2024-01-10"))
		assert.Equal(t, entity.DayIncomplete, h.StateOn("2024-01-09"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cleared day is deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
		mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}).AddRow("2024-01-09", "skipped"))
		mock.ExpectExec(deleteDay).WithArgs(habit.ID, "2024-01-09").WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(updateStatus).WithArgs("pending", pgxmock.AnyArg(), habit.ID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		_, err = repo.Mutate(ctx, habit.ID, func(h *entity.Habit) (bool, error) {
			delete(h.Skipped, "2024-01-09")
			return true, nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no change rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
		mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}))
		mock.ExpectRollback()

		h, err := repo.Mutate(ctx, habit.ID, func(h *entity.Habit) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.Equal(t, int64(1), h.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
		mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}))
		mock.ExpectRollback()

		_, err = repo.Mutate(ctx, habit.ID, func(h *entity.Habit) (bool, error) { return false, errorvalues.ErrHabitNotFound })
		assert.ErrorIs(t, err, errorvalues.ErrHabitNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("habit not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err = repo.Mutate(ctx, habit.ID, complete)
		assert.ErrorIs(t, err, errorvalues.ErrHabitNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write error rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(habit.ID).WillReturnRows(habitRow(pgxmock.NewRows(habitColumns), habit))
		mock.ExpectQuery(daysQuery).WithArgs(habit.ID).WillReturnRows(pgxmock.NewRows([]string{"day", "status"}))
		mock.ExpectExec(upsert).WithArgs(habit.ID, "2024-01-10", "completed").WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		_, err = repo.Mutate(ctx, habit.ID, complete)
		assert.EqualError(t, err, "writing habit day error: db error")
		assert.ErrorIs(t, err, errorvalues.ErrPersistence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		repo := repository.NewHabitsRepo(mock)
		mock.ExpectBegin().WillReturnError(errors.New("db error"))

		_, err = repo.Mutate(ctx, habit.ID, complete)
		assert.EqualError(t, err, "starting transaction error: db error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
