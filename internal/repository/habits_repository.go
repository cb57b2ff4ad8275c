package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
	"github.com/limbo/habitrack/pkg/entity"
)

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepo(conn PgConnection) *HabitsRepository {
	return &HabitsRepository{
		conn: conn,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanHabit(row rowScanner) (*entity.Habit, error) {
	var (
		h                   entity.Habit
		repeatMode, tod, st string
	)
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Color, &repeatMode, &tod, &st,
		&h.Reminder, &h.ReminderTime, &h.CreatedAt, &h.LastChecked, &h.Version)
	if err != nil {
		return nil, err
	}
	h.RepeatMode = entity.RepeatMode(repeatMode)
	h.TimeOfDay = entity.TimeOfDay(tod)
	h.Status = entity.HabitStatus(st)
	h.EnsureMaps()
	return &h, nil
}

func putDay(h *entity.Habit, day string, state entity.DayState) {
	switch state {
	case entity.DayCompleted:
		h.Completed[day] = true
	case entity.DaySkipped:
		h.Skipped[day] = true
	case entity.DayPending:
		h.Pending[day] = true
	case entity.DayIncomplete:
		h.Incomplete[day] = true
	}
}

func loadDays(ctx context.Context, q querier, h *entity.Habit) error {
	rows, err := q.Query(ctx, `SELECT day::text, status FROM habit_day_statuses WHERE habit_id = $1;`, h.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var day, status string
		if err = rows.Scan(&day, &status); err != nil {
			return err
		}
		putDay(h, day, entity.DayState(status))
	}
	return rows.Err()
}

func (hr *HabitsRepository) Create(ctx context.Context, habit *entity.Habit) error {
	row := hr.conn.QueryRow(ctx, `INSERT INTO habits (user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, version;`,
		habit.UserID,
		habit.Title,
		habit.Color,
		string(habit.RepeatMode),
		string(habit.TimeOfDay),
		string(habit.Status),
		habit.Reminder,
		habit.ReminderTime,
	)
	if err := row.Scan(&habit.ID, &habit.CreatedAt, &habit.Version); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrUserNotFound
			}
		}
		return errorvalues.NewPersistenceError("creating habit", err)
	}
	habit.EnsureMaps()
	return nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id, uid uuid.UUID) (*entity.Habit, error) {
	row := hr.conn.QueryRow(ctx, `SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE id = $1 AND user_id = $2;`, id, uid)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errorvalues.NewPersistenceError("getting habit by id", err)
	}
	if err = loadDays(ctx, hr.conn, habit); err != nil {
		return nil, errorvalues.NewPersistenceError("getting habit days", err)
	}
	return habit, nil
}

func (hr *HabitsRepository) GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE user_id = $1 ORDER BY created_at, id;`, uid)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("getting habits by uid", err)
	}
	habits, err := collectHabits(rows)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("unmarshalling habit", err)
	}
	if len(habits) == 0 {
		return habits, nil
	}
	byID := make(map[uuid.UUID]*entity.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}
	dayRows, err := hr.conn.Query(ctx, `SELECT s.habit_id, s.day::text, s.status FROM habit_day_statuses s JOIN habits h ON h.id = s.habit_id WHERE h.user_id = $1;`, uid)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("getting habit days by uid", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var (
			habitID     uuid.UUID
			day, status string
		)
		if err = dayRows.Scan(&habitID, &day, &status); err != nil {
			return nil, errorvalues.NewPersistenceError("unmarshalling habit day", err)
		}
		if h, ok := byID[habitID]; ok {
			putDay(h, day, entity.DayState(status))
		}
	}
	if err = dayRows.Err(); err != nil {
		return nil, errorvalues.NewPersistenceError("unexpected habit days rows", err)
	}
	return habits, nil
}

func (hr *HabitsRepository) GetByRepeatMode(ctx context.Context, mode entity.RepeatMode) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE repeat_mode = $1 ORDER BY created_at, id;`, string(mode))
	if err != nil {
		return nil, errorvalues.NewPersistenceError("getting habits by repeat mode", err)
	}
	habits, err := collectHabits(rows)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("unmarshalling habit", err)
	}
	return habits, nil
}

func collectHabits(rows pgx.Rows) ([]*entity.Habit, error) {
	defer rows.Close()
	habits := make([]*entity.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return habits, nil
}

func (hr *HabitsRepository) Update(ctx context.Context, habit *entity.Habit) error {
	row := hr.conn.QueryRow(ctx, `UPDATE habits SET title = $1, color = $2, repeat_mode = $3, time_of_day = $4, reminder = $5, reminder_time = $6, version = version + 1 WHERE id = $7 AND user_id = $8 RETURNING version;`,
		habit.Title,
		habit.Color,
		string(habit.RepeatMode),
		string(habit.TimeOfDay),
		habit.Reminder,
		habit.ReminderTime,
		habit.ID,
		habit.UserID,
	)
	if err := row.Scan(&habit.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorvalues.ErrHabitNotFound
		}
		return errorvalues.NewPersistenceError("updating habit", err)
	}
	return nil
}

func (hr *HabitsRepository) Delete(ctx context.Context, id, uid uuid.UUID) error {
	ct, err := hr.conn.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2;`, id, uid)
	if err != nil {
		return errorvalues.NewPersistenceError("deleting habit", err)
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

// Mutate locks the habit row for the length of a transaction, so concurrent
// writers of the same habit are serialized while other habits proceed.
func (hr *HabitsRepository) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*entity.Habit, error) {
	tx, err := hr.conn.Begin(ctx)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("starting transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx, `SELECT id, user_id, title, color, repeat_mode, time_of_day, status, reminder, reminder_time, created_at, last_checked, version FROM habits WHERE id = $1 FOR UPDATE;`, id)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errorvalues.NewPersistenceError("locking habit", err)
	}
	if err = loadDays(ctx, tx, habit); err != nil {
		return nil, errorvalues.NewPersistenceError("getting habit days", err)
	}

	before := habit.Days()
	changed, err := fn(habit)
	if err != nil {
		return nil, err
	}
	if !changed {
		return habit, nil
	}
	after := habit.Days()

	for _, day := range changedDays(before, after) {
		state, ok := after[day]
		if ok {
			_, err = tx.Exec(ctx, `INSERT INTO habit_day_statuses (habit_id, day, status) VALUES ($1, $2::date, $3) ON CONFLICT (habit_id, day) DO UPDATE SET status = EXCLUDED.status;`,
				habit.ID, day, string(state))
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM habit_day_statuses WHERE habit_id = $1 AND day = $2::date;`, habit.ID, day)
		}
		if err != nil {
			return nil, errorvalues.NewPersistenceError("writing habit day", err)
		}
	}
	_, err = tx.Exec(ctx, `UPDATE habits SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3;`,
		string(habit.Status), habit.LastChecked, habit.ID)
	if err != nil {
		return nil, errorvalues.NewPersistenceError("updating habit status", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, errorvalues.NewPersistenceError("committing habit", err)
	}
	committed = true
	habit.Version++
	return habit, nil
}

// changedDays lists, in ascending order, the days whose state differs between before and after.
func changedDays(before, after map[string]entity.DayState) []string {
	days := make([]string, 0, 1)
	for day, st := range after {
		if before[day] != st {
			days = append(days, day)
		}
	}
	for day := range before {
		if _, ok := after[day]; !ok {
			days = append(days, day)
		}
	}
	slices.Sort(days)
	return days
}
