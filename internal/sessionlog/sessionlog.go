// Package sessionlog records finished rounds for history. The game core only
// ever submits records; nothing it does depends on a write succeeding.
package sessionlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"draw-guess-be/internal/config"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

var ErrDisabled = errors.New("session log disabled")

// RoundRecord 是一轮结束后落库的事实
type RoundRecord struct {
	RoomID        string    `json:"room_id"`
	RoundNumber   int       `json:"round_number"`
	DrawerID      string    `json:"drawer_id"`
	Word          string    `json:"word"`
	FinalHintMask string    `json:"final_hint_mask"`
	GuessedIDs    []string  `json:"guessed_ids"`
	EndReason     string    `json:"end_reason"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
}

type Store interface {
	Save(ctx context.Context, rec RoundRecord) error
	// History returns a room's rounds ordered by round number.
	History(ctx context.Context, roomID string) ([]RoundRecord, error)
	Close() error
}

// Recorder 是游戏核心唯一看到的接口：提交即忘
type Recorder interface {
	Submit(rec RoundRecord)
}

type Nop struct{}

func (Nop) Submit(RoundRecord) {}

// Open builds the store selected by cfg.Driver and applies its migrations.
// Driver "none" (or empty) yields ErrDisabled.
func Open(ctx context.Context, cfg config.SessionLogConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, ErrDisabled
	case "sqlite":
		store, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session log driver %q", cfg.Driver)
	}
}

func migrate(ctx context.Context, dialect goose.Dialect, dir string, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations/"+dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	zap.L().Info("会话记录迁移完成", zap.String("dialect", dir), zap.Int("applied", len(results)))

	return nil
}

const writeTimeout = 5 * time.Second

// Writer drains submitted records into a Store on its own goroutine. Submit
// never blocks: when the buffer is full the record is dropped and logged.
type Writer struct {
	store Store
	queue chan RoundRecord

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup
}

func NewWriter(store Store, buffer int) *Writer {
	if buffer <= 0 {
		buffer = 1
	}

	w := &Writer{
		store: store,
		queue: make(chan RoundRecord, buffer),
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

func (w *Writer) Submit(rec RoundRecord) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		zap.L().Warn(
			"记录器已关闭，丢弃回合记录",
			zap.String("room_id", rec.RoomID),
			zap.Int("round", rec.RoundNumber),
		)
		return
	}

	select {
	case w.queue <- rec:
	default:
		zap.L().Warn(
			"记录队列已满，丢弃回合记录",
			zap.String("room_id", rec.RoomID),
			zap.Int("round", rec.RoundNumber),
		)
	}
}

func (w *Writer) loop() {
	defer w.wg.Done()

	for rec := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := w.store.Save(ctx, rec)
		cancel()

		if err != nil {
			zap.L().Error(
				"写入回合记录失败",
				zap.String("room_id", rec.RoomID),
				zap.Int("round", rec.RoundNumber),
				zap.Error(err),
			)
			continue
		}

		zap.L().Debug(
			"回合记录已写入",
			zap.String("room_id", rec.RoomID),
			zap.Int("round", rec.RoundNumber),
		)
	}
}

// Close stops accepting records, flushes what is queued and closes the store.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()

	return w.store.Close()
}
