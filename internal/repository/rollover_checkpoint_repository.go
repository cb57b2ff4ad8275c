package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	errorvalues "github.com/limbo/habitrack/internal/error_values"
)

type RolloverCheckpointRepository struct {
	conn PgConnection
}

func NewRolloverCheckpointRepo(conn PgConnection) *RolloverCheckpointRepository {
	return &RolloverCheckpointRepository{
		conn: conn,
	}
}

func (cr *RolloverCheckpointRepository) LastRolledDay(ctx context.Context) (string, error) {
	var day string
	row := cr.conn.QueryRow(ctx, `SELECT last_day::text FROM rollover_checkpoint WHERE id = 1;`)
	if err := row.Scan(&day); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", errorvalues.NewPersistenceError("reading rollover checkpoint", err)
	}
	return day, nil
}

func (cr *RolloverCheckpointRepository) SaveRolledDay(ctx context.Context, day string) error {
	_, err := cr.conn.Exec(ctx, `INSERT INTO rollover_checkpoint (id, last_day) VALUES (1, $1::date) ON CONFLICT (id) DO UPDATE SET last_day = GREATEST(rollover_checkpoint.last_day, EXCLUDED.last_day), updated_at = NOW();`, day)
	if err != nil {
		return errorvalues.NewPersistenceError("saving rollover checkpoint", err)
	}
	return nil
}
