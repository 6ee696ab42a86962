package sessionlog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"draw-guess-be/internal/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	saved   []RoundRecord
	failFor map[int]bool
	closed  bool
}

func (m *memoryStore) Save(_ context.Context, rec RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFor[rec.RoundNumber] {
		return errors.New("disk on fire")
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memoryStore) History(_ context.Context, roomID string) ([]RoundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []RoundRecord{}
	for _, r := range m.saved {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sampleRecord(round int) RoundRecord {
	started := time.UnixMilli(1_700_000_000_000).UTC()
	return RoundRecord{
		RoomID:        "ROOM1",
		RoundNumber:   round,
		DrawerID:      "p1",
		Word:          "Volcano",
		FinalHintMask: "vo_____",
		GuessedIDs:    []string{"p2", "p3"},
		EndReason:     "AllGuessed",
		StartedAt:     started,
		EndedAt:       started.Add(42 * time.Second),
	}
}

func TestWriter_FlushesOnClose(t *testing.T) {
	store := &memoryStore{failFor: map[int]bool{2: true}}
	w := NewWriter(store, 16)

	w.Submit(sampleRecord(1))
	w.Submit(sampleRecord(2))
	w.Submit(sampleRecord(3))

	require.NoError(t, w.Close())

	history, err := store.History(context.Background(), "ROOM1")
	require.NoError(t, err)
	require.Len(t, history, 2, "failed write is dropped, others still land")
	assert.Equal(t, 1, history[0].RoundNumber)
	assert.Equal(t, 3, history[1].RoundNumber)
	assert.True(t, store.closed)
}

func TestWriter_SubmitAfterCloseIsDropped(t *testing.T) {
	store := &memoryStore{}
	w := NewWriter(store, 1)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.NotPanics(t, func() { w.Submit(sampleRecord(1)) })
	assert.Empty(t, store.saved)
}

func TestOpen_Disabled(t *testing.T) {
	_, err := Open(context.Background(), config.SessionLogConfig{Driver: "none"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Open(context.Background(), config.SessionLogConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestSQLiteStore_SaveAndHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rounds.db")

	store, err := Open(ctx, config.SessionLogConfig{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	defer store.Close()

	second := sampleRecord(2)
	second.GuessedIDs = nil
	second.EndReason = "Timeout"

	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, sampleRecord(1)))

	other := sampleRecord(1)
	other.RoomID = "ROOM2"
	require.NoError(t, store.Save(ctx, other))

	history, err := store.History(ctx, "ROOM1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	// 时间按毫秒存储，读回来的时区可能不同，cmp 会使用 time.Time.Equal 比较
	if diff := cmp.Diff(sampleRecord(1), history[0]); diff != "" {
		t.Errorf("history[0] mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 2, history[1].RoundNumber)
	assert.Empty(t, history[1].GuessedIDs)
	assert.Equal(t, "Timeout", history[1].EndReason)

	empty, err := store.History(ctx, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rounds.db")

	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleRecord(1)))
	require.NoError(t, store.Close())

	// migrations must be idempotent
	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	history, err := store.History(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
