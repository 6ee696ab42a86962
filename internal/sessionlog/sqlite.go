package sessionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "./draw-guess.db"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 单写连接，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrate(ctx, goose.DialectSQLite3, "sqlite", db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec RoundRecord) error {
	guessed := rec.GuessedIDs
	if guessed == nil {
		guessed = []string{}
	}

	encoded, err := json.Marshal(guessed)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds(room_id, round_number, drawer_id, word, final_hint_mask, guessed_ids, end_reason, started_at_ms, ended_at_ms)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RoomID, rec.RoundNumber, rec.DrawerID, rec.Word, rec.FinalHintMask,
		string(encoded), rec.EndReason, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

func (s *SQLiteStore) History(ctx context.Context, roomID string) ([]RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, round_number, drawer_id, word, final_hint_mask, guessed_ids, end_reason, started_at_ms, ended_at_ms
		 FROM rounds WHERE room_id = ? ORDER BY round_number, id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	records := make([]RoundRecord, 0)

	for rows.Next() {
		var (
			rec       RoundRecord
			guessed   string
			startedMs int64
			endedMs   int64
		)

		err := rows.Scan(&rec.RoomID, &rec.RoundNumber, &rec.DrawerID, &rec.Word,
			&rec.FinalHintMask, &guessed, &rec.EndReason, &startedMs, &endedMs)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(guessed), &rec.GuessedIDs); err != nil {
			return nil, fmt.Errorf("decode guessed_ids: %w", err)
		}

		rec.StartedAt = time.UnixMilli(startedMs)
		rec.EndedAt = time.UnixMilli(endedMs)

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
