package game

import (
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/words"

	"go.uber.org/zap"
)

// GameContext 是一个房间的全部可变状态，只允许房间自己的协程访问
type GameContext struct {
	RoomID    string
	GameStage string
	Status    string
	HostID    string

	// 座位顺序即轮换顺序，只追加，不重排
	Players          []*Player
	CurrentTurnIndex int
	RoundsPlayed     int
	Round            *Round
	Remaining        int

	Settings   config.GameConfig
	Words      words.Source
	SessionLog sessionlog.Recorder

	TmoCh chan RequestWrapper

	scheduler Scheduler
	timer     Timer
	timerSeq  uint64
	doneCh    <-chan struct{}
	now       func() time.Time
}

func (gc *GameContext) GetPlayer(playerID string) (*Player, int) {
	for i, p := range gc.Players {
		if p.ID == playerID {
			return p, i
		}
	}

	return nil, -1
}

func (gc *GameContext) ConnectedCount() int {
	n := 0
	for _, p := range gc.Players {
		if p.Connected() {
			n++
		}
	}

	return n
}

func (gc *GameContext) PublicPlayers() []PublicPlayer {
	players := make([]PublicPlayer, 0, len(gc.Players))
	for _, p := range gc.Players {
		players = append(players, gc.publicPlayer(p))
	}

	return players
}

func (gc *GameContext) publicPlayer(p *Player) PublicPlayer {
	return PublicPlayer{
		ID:         p.ID,
		Name:       p.Name,
		Score:      p.Score,
		HasGuessed: p.HasGuessed,
		Connected:  p.Connected(),
		IsHost:     p.ID == gc.HostID,
	}
}

func (gc *GameContext) Scores() []ScoreEntry {
	scores := make([]ScoreEntry, 0, len(gc.Players))
	for _, p := range gc.Players {
		scores = append(scores, ScoreEntry{PlayerID: p.ID, Score: p.Score})
	}

	return scores
}

func (gc *GameContext) Snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		RoomID:           gc.RoomID,
		Status:           gc.Status,
		Stage:            gc.GameStage,
		HostID:           gc.HostID,
		Players:          gc.PublicPlayers(),
		MaxPlayers:       gc.Settings.MaxPlayers,
		MaxRounds:        gc.Settings.MaxRounds,
		Round:            gc.RoundsPlayed,
		CurrentTurnIndex: gc.CurrentTurnIndex,
	}

	if gc.Round.Active() {
		snap.DrawerID = gc.Round.DrawerID
		snap.Hint = gc.Round.HintMask
		snap.Remaining = gc.Remaining
	}

	return snap
}

func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	gc.broadcast(resp, "")
}

// BroadcastExcept 发给除 exceptID 以外的所有在线玩家
func (gc *GameContext) BroadcastExcept(exceptID string, resp ResponseWrapper) {
	gc.broadcast(resp, exceptID)
}

func (gc *GameContext) broadcast(resp ResponseWrapper, exceptID string) {
	for _, p := range gc.Players {
		if p.ID == exceptID || !p.Connected() {
			continue
		}

		select {
		case p.RespCh <- resp:
		default:
			zap.L().Warn(
				"发送广播响应失败：玩家响应通道已满",
				zap.String("room_id", gc.RoomID),
				zap.String("player_id", p.ID),
				zap.String("response_type", resp.RespType),
			)
		}
	}
}

func (gc *GameContext) UnicastResp(playerID string, resp ResponseWrapper) {
	player, _ := gc.GetPlayer(playerID)
	if player == nil {
		zap.L().Warn(
			"无法找到玩家进行单播响应",
			zap.String("room_id", gc.RoomID),
			zap.String("player_id", playerID),
		)
		return
	}

	if !player.Connected() {
		return
	}

	select {
	case player.RespCh <- resp:
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("room_id", gc.RoomID),
			zap.String("player_id", playerID),
		)
	}
}

func (gc *GameContext) broadcastPlayerList() {
	gc.BroadcastResp(WrapResponse(
		RESP_PLAYER_LIST_UPDATED,
		PlayerListResponse{
			HostID:  gc.HostID,
			Players: gc.PublicPlayers(),
		},
	))
}

// SetTimeout 取消当前定时器并安排一个新的。房间任意时刻最多一个定时器。
func (gc *GameContext) SetTimeout(kind string, d time.Duration) {
	gc.ClearTimeout()

	req := RequestWrapper{
		ReqType:    REQ_TIMEOUT,
		NativeData: &TimeoutRequest{Kind: kind, Seq: gc.timerSeq},
	}
	tmoCh, doneCh := gc.TmoCh, gc.doneCh

	gc.timer = gc.scheduler.AfterFunc(d, func() {
		select {
		case tmoCh <- req:
		case <-doneCh:
		}
	})
}

// ClearTimeout stops the pending timer. A timeout that already fired and sits
// in TmoCh carries the old sequence number and is dropped by consumeTimeout.
func (gc *GameContext) ClearTimeout() {
	if gc.timer != nil {
		gc.timer.Stop()
		gc.timer = nil
	}

	gc.timerSeq++
}

func (gc *GameContext) consumeTimeout(req *TimeoutRequest, kind string) bool {
	if gc.timer == nil || req.Kind != kind || req.Seq != gc.timerSeq {
		zap.L().Debug(
			"丢弃过期的超时事件",
			zap.String("room_id", gc.RoomID),
			zap.String("kind", req.Kind),
		)
		return false
	}

	gc.timer = nil

	return true
}
