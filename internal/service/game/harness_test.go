package game

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/words"

	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	s       *fakeScheduler
	due     time.Duration
	order   int
	f       func()
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	ft.s.mu.Lock()
	defer ft.s.mu.Unlock()

	if ft.stopped || ft.fired {
		return false
	}
	ft.stopped = true

	return true
}

// fakeScheduler 只在测试调用 fireNext 时触发定时器
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	count  int
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	ft := &fakeTimer{s: s, due: d, order: s.count, f: f}
	s.timers = append(s.timers, ft)

	return ft
}

func (s *fakeScheduler) pendingTimers() []*fakeTimer {
	pending := make([]*fakeTimer, 0, len(s.timers))
	for _, ft := range s.timers {
		if !ft.stopped && !ft.fired {
			pending = append(pending, ft)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].order < pending[j].order })

	return pending
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pendingTimers())
}

// next 返回最早的未触发定时器，不触发它
func (s *fakeScheduler) next() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingTimers()
	if len(pending) == 0 {
		return nil
	}

	return pending[0]
}

// fire runs ft even if it was stopped in the meantime, like a real
// AfterFunc callback that had already started when Stop was called.
func (s *fakeScheduler) fire(ft *fakeTimer) {
	s.mu.Lock()
	ft.fired = true
	s.mu.Unlock()

	ft.f()
}

// fireNext runs the oldest live timer. It reports false when none is pending.
func (s *fakeScheduler) fireNext() bool {
	ft := s.next()
	if ft == nil {
		return false
	}

	s.fire(ft)

	return true
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("Failed to marshal: " + err.Error())
	}

	return data
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []sessionlog.RoundRecord
}

func (m *memoryRecorder) Submit(rec sessionlog.RoundRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
}

func (m *memoryRecorder) all() []sessionlog.RoundRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]sessionlog.RoundRecord(nil), m.records...)
}

func testSettings() config.GameConfig {
	settings := config.DefaultGameConfig()
	settings.RoundSeconds = 3
	settings.TickInterval = time.Second
	settings.SettleDelay = time.Second

	return settings
}

// harness 在测试协程里同步驱动状态机，不启动事件循环
type harness struct {
	t        *testing.T
	gm       *GameMachine
	sched    *fakeScheduler
	recorder *memoryRecorder
	conns    map[string]chan ResponseWrapper
}

func newHarness(t *testing.T, settings config.GameConfig, word string) *harness {
	t.Helper()

	sched := &fakeScheduler{}
	recorder := &memoryRecorder{}

	gm := NewGameMachine("ROOM0001", Options{
		Settings:   settings,
		Words:      words.Fixed(word),
		SessionLog: recorder,
		Scheduler:  sched,
	})
	gm.init()

	return &harness{
		t:        t,
		gm:       gm,
		sched:    sched,
		recorder: recorder,
		conns:    make(map[string]chan ResponseWrapper),
	}
}

func (h *harness) ctx() *GameContext {
	return h.gm.ctx
}

func (h *harness) tryJoin(id, name string) (chan ResponseWrapper, JoinResult) {
	respCh := make(chan ResponseWrapper, 256)
	resultCh := make(chan JoinResult, 1)

	h.gm.handle(RequestWrapper{
		ReqType: REQ_JOIN_GAME,
		NativeData: &JoinGameRequest{
			RoomID:     h.ctx().RoomID,
			PlayerID:   id,
			JoinerName: name,
			RespCh:     respCh,
			ResultCh:   resultCh,
		},
	})

	return respCh, <-resultCh
}

func (h *harness) join(id, name string) chan ResponseWrapper {
	h.t.Helper()

	respCh, result := h.tryJoin(id, name)
	require.NoError(h.t, result.Err)
	h.conns[id] = respCh

	return respCh
}

func (h *harness) leave(id string) {
	h.gm.handle(RequestWrapper{
		ReqType:    REQ_EXIT_GAME,
		NativeData: &ExitGameRequest{PlayerID: id, RespCh: h.conns[id]},
	})
}

func (h *harness) send(from, reqType string, data any) {
	h.gm.handle(RequestWrapper{
		ReqType: reqType,
		Data:    mustMarshal(data),
		From:    from,
	})
}

func (h *harness) guess(from, text string) {
	h.send(from, REQ_GUESS, GuessRequest{Text: text})
}

// fire 触发最早的定时器，并处理它投递到 TmoCh 的事件
func (h *harness) fire() {
	h.t.Helper()

	require.True(h.t, h.sched.fireNext(), "no timer pending")
	h.drainTimeouts()
}

func (h *harness) drainTimeouts() {
	for {
		select {
		case req := <-h.ctx().TmoCh:
			h.gm.handle(req)
		default:
			return
		}
	}
}

// drain 取出某个连接上目前缓存的所有响应
func (h *harness) drain(id string) []ResponseWrapper {
	return drainCh(h.conns[id])
}

func drainCh(ch chan ResponseWrapper) []ResponseWrapper {
	var out []ResponseWrapper
	for {
		select {
		case resp, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, resp)
		default:
			return out
		}
	}
}

func ofType(resps []ResponseWrapper, respType string) []ResponseWrapper {
	var out []ResponseWrapper
	for _, r := range resps {
		if r.RespType == respType {
			out = append(out, r)
		}
	}

	return out
}

func (h *harness) score(id string) int {
	player, _ := h.ctx().GetPlayer(id)
	require.NotNil(h.t, player)

	return player.Score
}

// seat 加入 ids 对应的玩家并开始游戏，第一个玩家是画手
func (h *harness) seat(ids ...string) {
	h.t.Helper()

	for _, id := range ids {
		h.join(id, id)
	}
	h.send(ids[0], REQ_START_GAME, StartGameRequest{})
	require.Equal(h.t, STAGE_DRAWING, h.ctx().GameStage)

	for _, id := range ids {
		h.drain(id)
	}
}
