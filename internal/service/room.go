package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/words"

	"go.uber.org/zap"
)

var (
	ErrInvalidRoomSettings = errors.New("invalid-room-settings")
	ErrHostNameRequired    = errors.New("host-name-required")
	ErrServiceClosed       = errors.New("service-closed")
)

// 加入和退出请求等待房间状态机处理的最长时间
const requestTimeout = 5 * time.Second

// RoomService 是房间注册表：房间号到房间状态机的映射。
// 房间内部的状态全部由各自的状态机协程持有，这里只管理生命周期。
type RoomService struct {
	state *roomServiceState

	settings   config.GameConfig
	words      words.Source
	sessionLog sessionlog.Recorder
	scheduler  game.Scheduler
	now        func() time.Time
}

type roomServiceState struct {
	mu sync.RWMutex

	rooms  map[string]*game.GameMachine
	closed bool

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

type Option func(rs *RoomService)

// WithScheduler 替换房间使用的定时器，测试用
func WithScheduler(s game.Scheduler) Option {
	return func(rs *RoomService) {
		rs.scheduler = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(rs *RoomService) {
		rs.now = now
	}
}

func NewRoomService(
	settings config.GameConfig,
	wordSrc words.Source,
	recorder sessionlog.Recorder,
	opts ...Option,
) *RoomService {
	if recorder == nil {
		recorder = sessionlog.Nop{}
	}

	rs := &RoomService{
		state: &roomServiceState{
			rooms:       make(map[string]*game.GameMachine),
			cleanUpDone: make(chan struct{}),
		},
		settings:   settings,
		words:      wordSrc,
		sessionLog: recorder,
		scheduler:  game.NewRealScheduler(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(rs)
	}

	// 启动一个 goroutine 定期清理失效的房间
	if settings.CleanupInterval > 0 {
		go rs.startCleanupLoop(settings.CleanupInterval)
	}

	return rs
}

func (rs *RoomService) startCleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.state.cleanUpDone:
			return

		case <-ticker.C:
			rs.CleanUp()
		}
	}
}

// CleanUp 移除已关闭或空闲超过 RoomIdleTTL 的房间，返回清理的数量
func (rs *RoomService) CleanUp() int {
	now := rs.now()
	stale := make([]*game.GameMachine, 0)

	rs.state.mu.Lock()
	for roomID, gm := range rs.state.rooms {
		if !isRoomValid(gm, now, rs.settings.RoomIdleTTL) {
			zap.L().Info("房间状态失效，开始清理", zap.String("room_id", roomID))

			delete(rs.state.rooms, roomID)
			stale = append(stale, gm)
		}
	}
	rs.state.mu.Unlock()

	// 在锁外停止，状态机退出时的回调也需要拿锁
	for _, gm := range stale {
		gm.Stop()
	}

	return len(stale)
}

// Close 停止清理协程和所有房间，等待房间协程退出
func (rs *RoomService) Close() {
	rs.state.closeOnce.Do(func() {
		close(rs.state.cleanUpDone)
	})

	rs.state.mu.Lock()
	rs.state.closed = true
	rooms := make([]*game.GameMachine, 0, len(rs.state.rooms))
	for _, gm := range rs.state.rooms {
		rooms = append(rooms, gm)
	}
	rs.state.rooms = make(map[string]*game.GameMachine)
	rs.state.mu.Unlock()

	for _, gm := range rooms {
		gm.Stop()
	}

	timeout := time.After(requestTimeout)
	for _, gm := range rooms {
		select {
		case <-gm.Done():
		case <-timeout:
			zap.L().Warn("等待房间退出超时", zap.String("room_id", gm.RoomID()))
			return
		}
	}
}

// Count 返回当前注册的房间数量
func (rs *RoomService) Count() int {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return len(rs.state.rooms)
}

func (rs *RoomService) lookup(roomID string) *game.GameMachine {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return rs.state.rooms[roomID]
}

// spawn 创建并注册一个新房间。roomID 为空时生成一个未被占用的房间号。
// 房间号已存在时返回已有的房间。
func (rs *RoomService) spawn(roomID string, settings config.GameConfig) (*game.GameMachine, bool, error) {
	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	if rs.state.closed {
		return nil, false, ErrServiceClosed
	}

	if roomID == "" {
		for roomID == "" || rs.state.rooms[roomID] != nil {
			roomID = game.GenRoomID()
		}
	} else if gm := rs.state.rooms[roomID]; gm != nil && !gm.IsClosed() {
		return gm, false, nil
	}

	gm := game.NewGameMachine(roomID, game.Options{
		Settings:   settings,
		Words:      rs.words,
		SessionLog: rs.sessionLog,
		Scheduler:  rs.scheduler,
		Now:        rs.now,
		OnClosed:   rs.onRoomClosed,
	})
	rs.state.rooms[roomID] = gm

	go gm.Start()

	zap.L().Info(
		"房间已创建",
		zap.String("room_id", roomID),
		zap.Int("max_players", settings.MaxPlayers),
		zap.Int("max_rounds", settings.MaxRounds),
	)

	return gm, true, nil
}

// onRoomClosed 在房间状态机协程退出时调用，没有在线玩家的房间立即注销
func (rs *RoomService) onRoomClosed(gm *game.GameMachine) {
	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	if rs.state.rooms[gm.RoomID()] == gm {
		delete(rs.state.rooms, gm.RoomID())
		zap.L().Info("房间已注销", zap.String("room_id", gm.RoomID()))
	}
}

// CreateRoom 通过 HTTP 创建房间。房主先以断线状态占座，之后用返回的 PlayerID 连接。
func (rs *RoomService) CreateRoom(req dto.CreateRoomRequest) (dto.CreateRoomResponse, error) {
	hostName := strings.TrimSpace(req.HostName)
	if hostName == "" {
		return dto.CreateRoomResponse{}, ErrHostNameRequired
	}

	settings, err := roomSettings(rs.settings, req)
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}

	gm, _, err := rs.spawn("", settings)
	if err != nil {
		return dto.CreateRoomResponse{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	host, err := submitJoin(ctx, gm, &game.JoinGameRequest{
		RoomID:     gm.RoomID(),
		JoinerName: hostName,
	})
	if err != nil {
		gm.Stop()
		return dto.CreateRoomResponse{}, err
	}

	zap.L().Info(
		"房间由 HTTP 请求创建",
		zap.String("room_id", gm.RoomID()),
		zap.String("host_id", host.ID),
	)

	return dto.CreateRoomResponse{
		RoomID:     gm.RoomID(),
		PlayerID:   host.ID,
		HostName:   host.Name,
		MaxPlayers: settings.MaxPlayers,
		MaxRounds:  settings.MaxRounds,
	}, nil
}

// JoinRoom 加入房间，房间不存在时以默认配置创建，加入者成为房主。
// 返回房间状态机，之后的请求直接投递给它。
func (rs *RoomService) JoinRoom(
	ctx context.Context,
	req *game.JoinGameRequest,
) (*game.GameMachine, game.PublicPlayer, error) {
	roomID := normalizeRoomID(req.RoomID)

	// 房间可能恰好在查找和投递之间关闭，这时重新创建一次
	for attempt := 0; ; attempt++ {
		gm, created, err := rs.spawn(roomID, rs.settings)
		if err != nil {
			return nil, game.PublicPlayer{}, err
		}

		joinReq := *req
		joinReq.RoomID = gm.RoomID()

		player, err := submitJoin(ctx, gm, &joinReq)
		if errors.Is(err, game.ErrRoomClosed) && attempt == 0 {
			rs.onRoomClosed(gm)
			continue
		}
		if err != nil {
			zap.L().Warn(
				"加入房间失败",
				zap.String("room_id", gm.RoomID()),
				zap.String("player_name", req.JoinerName),
				zap.Error(err),
			)
			return nil, game.PublicPlayer{}, err
		}

		zap.L().Info(
			"房间接纳玩家",
			zap.String("room_id", gm.RoomID()),
			zap.String("player_id", player.ID),
			zap.Bool("new_room", created),
		)

		return gm, player, nil
	}
}

func submitJoin(ctx context.Context, gm *game.GameMachine, req *game.JoinGameRequest) (game.PublicPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resultCh := make(chan game.JoinResult, 1)
	req.ResultCh = resultCh

	err := gm.SubmitWait(ctx, game.RequestWrapper{
		ReqType:    game.REQ_JOIN_GAME,
		NativeData: req,
	})
	if err != nil {
		return game.PublicPlayer{}, err
	}

	select {
	case res := <-resultCh:
		return res.Player, res.Err
	case <-gm.Done():
		// 状态机可能在退出前刚好处理了这个请求
		select {
		case res := <-resultCh:
			return res.Player, res.Err
		default:
			return game.PublicPlayer{}, game.ErrRoomClosed
		}
	case <-ctx.Done():
		return game.PublicPlayer{}, ctx.Err()
	}
}

// GetRoom 返回房间当前状态的快照
func (rs *RoomService) GetRoom(ctx context.Context, roomID string) (game.RoomSnapshot, error) {
	gm := rs.lookup(normalizeRoomID(roomID))
	if gm == nil {
		return game.RoomSnapshot{}, game.ErrRoomNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	snap, err := gm.Snapshot(ctx)
	if errors.Is(err, game.ErrRoomClosed) {
		return game.RoomSnapshot{}, game.ErrRoomNotFound
	}

	return snap, err
}

// Leave 通知房间某个连接已断开。respCh 用来区分已被重连顶替的旧连接。
func (rs *RoomService) Leave(roomID, playerID string, respCh chan game.ResponseWrapper) error {
	gm := rs.lookup(normalizeRoomID(roomID))
	if gm == nil {
		return game.ErrRoomNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	err := gm.SubmitWait(ctx, game.RequestWrapper{
		ReqType: game.REQ_EXIT_GAME,
		NativeData: &game.ExitGameRequest{
			PlayerID: playerID,
			RespCh:   respCh,
		},
	})
	if errors.Is(err, game.ErrRoomClosed) {
		return nil
	}

	return err
}
