package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/habitrack/pkg/entity"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

type UsersRepositoryI interface {
	// Looks up user's profile by uid. Used by auth middleware and recommendations
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
}

// MutateFunc changes habit in place and reports whether anything changed.
// Returning an error aborts the mutation without persisting anything.
type MutateFunc func(habit *entity.Habit) (bool, error)

type HabitsRepositoryI interface {
	// Creates new habit. ID, CreatedAt and Version are filled in on success
	Create(ctx context.Context, habit *entity.Habit) error
	// Searches habit with given id owned by uid. Foreign habits are reported as not found
	GetByID(ctx context.Context, id, uid uuid.UUID) (*entity.Habit, error)
	// Lists habits owned by uid with their day statuses, oldest first
	GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error)
	// Lists habits of every user with given repeat mode. Day statuses are not loaded
	GetByRepeatMode(ctx context.Context, mode entity.RepeatMode) ([]*entity.Habit, error)
	// Updates habit's attributes (ID and UserID in habit are necessary). Day statuses are untouched
	Update(ctx context.Context, habit *entity.Habit) error
	// Deletes habit with id owned by uid together with its history
	Delete(ctx context.Context, id, uid uuid.UUID) error
	// Atomically loads habit, applies fn and persists the result if fn reports a change
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*entity.Habit, error)
}

type RolloverCheckpointRepositoryI interface {
	// Returns the last day the rollover job finished without failures, "" if there is none yet
	LastRolledDay(ctx context.Context) (string, error)
	// Moves the checkpoint to day. An earlier day never replaces a later one
	SaveRolledDay(ctx context.Context, day string) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
