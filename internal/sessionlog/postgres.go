package sessionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	if connString == "" {
		return nil, errors.New("postgres session log needs a dsn")
	}

	migrationDB, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("open db for migrations: %w", err)
	}

	err = migrate(ctx, goose.DialectPostgres, "postgres", migrationDB)
	closeErr := migrationDB.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close migration db: %w", closeErr)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec RoundRecord) error {
	guessed := rec.GuessedIDs
	if guessed == nil {
		guessed = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO rounds(room_id, round_number, drawer_id, word, final_hint_mask, guessed_ids, end_reason, started_at, ended_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.RoomID, rec.RoundNumber, rec.DrawerID, rec.Word, rec.FinalHintMask,
		guessed, rec.EndReason, rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

func (s *PostgresStore) History(ctx context.Context, roomID string) ([]RoundRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT room_id, round_number, drawer_id, word, final_hint_mask, guessed_ids, end_reason, started_at, ended_at
		 FROM rounds WHERE room_id = $1 ORDER BY round_number, id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	records := make([]RoundRecord, 0)

	for rows.Next() {
		var rec RoundRecord
		err := rows.Scan(&rec.RoomID, &rec.RoundNumber, &rec.DrawerID, &rec.Word,
			&rec.FinalHintMask, &rec.GuessedIDs, &rec.EndReason, &rec.StartedAt, &rec.EndedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
