package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/words"

	"go.uber.org/zap"
)

// Stop 触发的强制关闭，只在状态机内部使用
const reqClose = "Close"

type Options struct {
	Settings   config.GameConfig
	Words      words.Source
	SessionLog sessionlog.Recorder
	Scheduler  Scheduler
	Now        func() time.Time

	// 状态机退出后调用，运行在状态机自己的协程里
	OnClosed func(gm *GameMachine)
}

// GameMachine 是一个房间的状态机，房间的所有状态只在 Start 的协程里修改
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	// 这是所有的用户的请求汇总的通道
	reqCh chan RequestWrapper
	// 关闭后定时器回调和 Submit 都不会再阻塞
	doneCh   chan struct{}
	exitedCh chan struct{}

	stopOnce sync.Once
	initOnce sync.Once

	connected  atomic.Int32
	lastActive atomic.Int64

	onClosed func(gm *GameMachine)
}

func NewGameMachine(roomID string, opts Options) *GameMachine {
	if opts.Scheduler == nil {
		opts.Scheduler = NewRealScheduler()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Words == nil {
		opts.Words, _ = words.NewVocabulary(words.DefaultWords, 0)
	}
	if opts.SessionLog == nil {
		opts.SessionLog = sessionlog.Nop{}
	}

	doneCh := make(chan struct{})

	ctx := &GameContext{
		RoomID:     roomID,
		GameStage:  STAGE_WAITING,
		Status:     STATUS_WAITING,
		Players:    make([]*Player, 0, opts.Settings.MaxPlayers),
		Settings:   opts.Settings,
		Words:      opts.Words,
		SessionLog: opts.SessionLog,
		TmoCh:      make(chan RequestWrapper, 64),
		scheduler:  opts.Scheduler,
		doneCh:     doneCh,
		now:        opts.Now,
	}

	gm := &GameMachine{
		ctx:      ctx,
		reqCh:    make(chan RequestWrapper, 64),
		doneCh:   doneCh,
		exitedCh: make(chan struct{}),
		onClosed: opts.OnClosed,
	}
	gm.lastActive.Store(opts.Now().UnixNano())
	gm.setHandler(newStageHandler(STAGE_WAITING))

	return gm
}

func (gm *GameMachine) RoomID() string {
	return gm.ctx.RoomID
}

func (gm *GameMachine) setHandler(h StageHandler) {
	h.SetOnSwitch(func(nextStage string) {
		gm.ctx.GameStage = nextStage
	})
	gm.handler = h
}

func (gm *GameMachine) init() {
	gm.initOnce.Do(func() {
		gm.handler.OnEnter(gm.ctx)
	})
}

// Start 运行事件循环，直到房间关闭或 Stop 被调用
func (gm *GameMachine) Start() {
	gm.init()

	defer func() {
		gm.ctx.ClearTimeout()
		gm.stopOnce.Do(func() { close(gm.doneCh) })
		close(gm.exitedCh)

		zap.L().Info(
			"游戏状态机已结束",
			zap.String("room_id", gm.ctx.RoomID),
		)

		if gm.onClosed != nil {
			gm.onClosed(gm)
		}
	}()

	for {
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
		case req = <-gm.ctx.TmoCh:
		case <-gm.doneCh:
			zap.L().Info(
				"收到退出信号，结束游戏状态机",
				zap.String("room_id", gm.ctx.RoomID),
			)
			gm.handle(RequestWrapper{ReqType: reqClose})
			return
		}

		gm.handle(req)

		if gm.ctx.GameStage == STAGE_CLOSED {
			return
		}
	}
}

// handle 交给当前阶段处理一个请求，必要时切换阶段。
// 一次 OnEnter 可能马上又触发切换（例如最后一回合结束直接进入 Finished），所以循环处理。
func (gm *GameMachine) handle(req RequestWrapper) {
	if req.ReqType == reqClose {
		gm.ctx.GameStage = STAGE_CLOSED
	} else if err := gm.handler.OnHandle(gm.ctx, req); err != nil {
		zap.L().Debug(
			"处理请求失败",
			zap.Error(err),
			zap.String("room_id", gm.ctx.RoomID),
			zap.String("stage", gm.handler.Stage()),
			zap.String("request_type", req.ReqType),
		)
	}

	for gm.ctx.GameStage != gm.handler.Stage() {
		gm.handler.OnExit(gm.ctx)
		gm.setHandler(newStageHandler(gm.ctx.GameStage))
		gm.handler.OnEnter(gm.ctx)
	}

	gm.connected.Store(int32(gm.ctx.ConnectedCount()))
	if req.ReqType != REQ_TIMEOUT {
		gm.lastActive.Store(gm.ctx.now().UnixNano())
	}
}

// Submit 非阻塞地投递请求
func (gm *GameMachine) Submit(req RequestWrapper) error {
	select {
	case <-gm.doneCh:
		return ErrRoomClosed
	default:
	}

	select {
	case gm.reqCh <- req:
		return nil
	case <-gm.doneCh:
		return ErrRoomClosed
	default:
		return ErrRoomBusy
	}
}

// SubmitWait 阻塞投递，直到请求入队、房间关闭或 ctx 结束
func (gm *GameMachine) SubmitWait(ctx context.Context, req RequestWrapper) error {
	select {
	case <-gm.doneCh:
		return ErrRoomClosed
	default:
	}

	select {
	case gm.reqCh <- req:
		return nil
	case <-gm.doneCh:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot 向状态机请求一份只读的房间快照
func (gm *GameMachine) Snapshot(ctx context.Context) (RoomSnapshot, error) {
	replyCh := make(chan RoomSnapshot, 1)

	err := gm.SubmitWait(ctx, RequestWrapper{
		ReqType:    REQ_SNAPSHOT,
		NativeData: &SnapshotRequest{ReplyCh: replyCh},
	})
	if err != nil {
		return RoomSnapshot{}, err
	}

	select {
	case snap := <-replyCh:
		return snap, nil
	case <-gm.exitedCh:
		return RoomSnapshot{}, ErrRoomClosed
	case <-ctx.Done():
		return RoomSnapshot{}, ctx.Err()
	}
}

// Stop 关闭房间，活动中的回合以 Aborted 结束。可重复调用。
func (gm *GameMachine) Stop() {
	gm.stopOnce.Do(func() { close(gm.doneCh) })
}

// Done 在事件循环退出后关闭
func (gm *GameMachine) Done() <-chan struct{} {
	return gm.exitedCh
}

func (gm *GameMachine) IsClosed() bool {
	select {
	case <-gm.exitedCh:
		return true
	default:
		return false
	}
}

func (gm *GameMachine) ConnectedCount() int {
	return int(gm.connected.Load())
}

func (gm *GameMachine) LastActive() time.Time {
	return time.Unix(0, gm.lastActive.Load())
}
