package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
)

const progressColumns = `player_id, to_char(day, 'YYYY-MM-DD'), habit_points_earned,
	runs_available, runs_used, threshold1_reached, threshold2_reached, threshold3_reached`

// ProgressRepository persists daily run progress.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a ProgressRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func scanProgress(row pgx.Row) (ledger.DailyProgress, error) {
	var p ledger.DailyProgress
	err := row.Scan(
		&p.PlayerID, &p.Date, &p.HabitPointsEarned,
		&p.RunsAvailable, &p.RunsUsed, &p.Threshold1, &p.Threshold2, &p.Threshold3,
	)
	return p, err
}

// Progress returns the record for playerID on date.
//
// Precondition: date is formatted YYYY-MM-DD.
// Postcondition: found is false and err is nil when no record exists.
func (r *ProgressRepository) Progress(ctx context.Context, playerID, date string) (ledger.DailyProgress, bool, error) {
	p, err := scanProgress(r.db.QueryRow(ctx,
		`SELECT `+progressColumns+`
		 FROM daily_progress WHERE player_id = $1 AND day = $2::date`,
		playerID, date,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.DailyProgress{}, false, nil
		}
		return ledger.DailyProgress{}, false, fmt.Errorf("querying progress: %w", err)
	}
	return p, true, nil
}

// SaveProgress upserts p. An existing row keeps the larger of its stored and
// new point and run totals, and a reached threshold stays reached.
// runs_used is only ever changed by ConsumeRun.
//
// Postcondition: The stored row never moves backwards within a day.
func (r *ProgressRepository) SaveProgress(ctx context.Context, p ledger.DailyProgress) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO daily_progress
		    (player_id, day, habit_points_earned, runs_available, runs_used,
		     threshold1_reached, threshold2_reached, threshold3_reached)
		 VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (player_id, day) DO UPDATE SET
		    habit_points_earned = GREATEST(daily_progress.habit_points_earned, EXCLUDED.habit_points_earned),
		    runs_available      = GREATEST(daily_progress.runs_available, EXCLUDED.runs_available),
		    threshold1_reached  = daily_progress.threshold1_reached OR EXCLUDED.threshold1_reached,
		    threshold2_reached  = daily_progress.threshold2_reached OR EXCLUDED.threshold2_reached,
		    threshold3_reached  = daily_progress.threshold3_reached OR EXCLUDED.threshold3_reached`,
		p.PlayerID, p.Date, p.HabitPointsEarned, p.RunsAvailable, p.RunsUsed,
		p.Threshold1, p.Threshold2, p.Threshold3,
	)
	if err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}
	return nil
}

// ConsumeRun increments runs_used with a guarded UPDATE and records effect in
// the same transaction.
//
// Postcondition: Returns the updated progress, or an error wrapping
// expedition.ErrNoRunsAvailable with nothing written.
func (r *ProgressRepository) ConsumeRun(ctx context.Context, playerID, date string, effect expedition.RunEffect) (ledger.DailyProgress, error) {
	var p ledger.DailyProgress
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		p, err = scanProgress(tx.QueryRow(ctx,
			`UPDATE daily_progress SET runs_used = runs_used + 1
			 WHERE player_id = $1 AND day = $2::date AND runs_used < runs_available
			 RETURNING `+progressColumns,
			playerID, date,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: player %s on %s", expedition.ErrNoRunsAvailable, playerID, date)
			}
			return fmt.Errorf("consuming run: %w", err)
		}

		if c := effect.Credit; c != nil {
			if err := creditItem(ctx, tx, playerID, c.ItemID, c.Quantity); err != nil {
				return err
			}
		}
		if e := effect.Encounter; e != nil {
			if err := insertEncounter(ctx, tx, *e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ledger.DailyProgress{}, err
	}
	return p, nil
}
