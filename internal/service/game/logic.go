package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// 一个房间的阶段：
// 1. 等待阶段（Waiting）：玩家加入房间，任意在座玩家可以开始游戏
// 2. 作画阶段（Drawing）：画手作画，其他玩家猜词，倒计时进行中
// 3. 回合结算（RoundEnd）：公布答案，短暂停顿后开始下一回合
// 4. 结束阶段（Finished）：达到最大回合数，公布排名，可以再来一局
// 5. 关闭阶段（Closed）：房间没有在线玩家或被强制关闭，事件循环退出
const (
	STAGE_WAITING   = "Waiting"
	STAGE_DRAWING   = "Drawing"
	STAGE_ROUND_END = "RoundEnd"
	STAGE_FINISHED  = "Finished"
	STAGE_CLOSED    = "Closed"
)

// 通知代码
const (
	NOTICE_NO_ACTIVE_ROUND    = "no-active-round"
	NOTICE_NOT_ENOUGH_PLAYERS = "not-enough-players"
	NOTICE_NOT_HOST           = "not-host"
	NOTICE_CANNOT_SCORE       = "cannot-score-this-round"
	NOTICE_HINT_EXHAUSTED     = "hint-exhausted"
)

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

func newStageHandler(stage string) StageHandler {
	switch stage {
	case STAGE_WAITING:
		return NewWaitStageHandler()
	case STAGE_DRAWING:
		return NewDrawStageHandler()
	case STAGE_ROUND_END:
		return NewRoundEndStageHandler()
	case STAGE_FINISHED:
		return NewFinishStageHandler()
	default:
		if stage != STAGE_CLOSED {
			zap.L().Error("未知的游戏阶段，关闭房间", zap.String("stage", stage))
		}
		return NewCloseStageHandler()
	}
}

type baseStageHandler struct {
	onSwitch func(string)
}

func (b *baseStageHandler) SetOnSwitch(onSwitch func(string)) {
	b.onSwitch = onSwitch
}

func (b *baseStageHandler) OnExit(ctx *GameContext) {}

// handleCommon 处理所有阶段都接受的请求：加入、退出、笔画转发和快照
func (b *baseStageHandler) handleCommon(ctx *GameContext, req RequestWrapper) (bool, error) {
	if joinReq := TryUnwrapJoinGameRequest(req); joinReq != nil {
		player, err := onPlayerJoin(ctx, joinReq)
		if joinReq.ResultCh != nil {
			joinReq.ResultCh <- JoinResult{Player: player, Err: err}
		}
		return true, err
	}

	if exitReq := TryUnwrapExitGameRequest(req); exitReq != nil {
		if onPlayerExit(ctx, exitReq.PlayerID, exitReq.RespCh) {
			b.onSwitch(STAGE_CLOSED)
		}
		return true, nil
	}

	if strokeReq := TryUnwrapStrokeRequest(req); strokeReq != nil {
		if player, _ := ctx.GetPlayer(req.From); player == nil {
			return true, ErrUnknownPlayer
		}

		zap.L().Debug(
			"转发笔画",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", req.From),
		)

		ctx.BroadcastExcept(req.From, WrapResponse(
			RESP_STROKE,
			StrokeResponse{PlayerID: req.From, Stroke: strokeReq.Stroke},
		))
		return true, nil
	}

	if snapReq := TryUnwrapSnapshotRequest(req); snapReq != nil {
		snapReq.ReplyCh <- ctx.Snapshot()
		return true, nil
	}

	return false, nil
}

// relayChat 把不是答案的发言作为聊天转发给整个房间
func relayChat(ctx *GameContext, playerID, text string) error {
	player, _ := ctx.GetPlayer(playerID)
	if player == nil {
		return ErrUnknownPlayer
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx.BroadcastResp(WrapResponse(
		RESP_CHAT,
		ChatResponse{PlayerID: player.ID, PlayerName: player.Name, Text: text},
	))

	return nil
}

func noActiveRound(ctx *GameContext, playerID string) error {
	ctx.UnicastResp(playerID, WrapNotice(NOTICE_NO_ACTIVE_ROUND, "当前没有进行中的回合"))
	return ErrNoActiveRound
}

// ---------------------------------------------------------------------------

// 等待阶段是房间最初的阶段，也是再来一局之后回到的阶段
type waitStageHandler struct {
	baseStageHandler
}

func NewWaitStageHandler() *waitStageHandler {
	return &waitStageHandler{}
}

func (wsh *waitStageHandler) Stage() string {
	return STAGE_WAITING
}

func (wsh *waitStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_WAITING
	ctx.Status = STATUS_WAITING
	ctx.Remaining = 0

	if len(ctx.Players) > 0 {
		ctx.broadcastPlayerList()
	}
}

func (wsh *waitStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := wsh.handleCommon(ctx, req); handled {
		return err
	}

	if TryUnwrapStartGameRequest(req) != nil {
		player, _ := ctx.GetPlayer(req.From)
		if player == nil {
			return ErrUnknownPlayer
		}

		if ctx.ConnectedCount() < ctx.Settings.MinPlayers {
			ctx.UnicastResp(req.From, WrapNotice(
				NOTICE_NOT_ENOUGH_PLAYERS,
				fmt.Sprintf("至少需要 %d 名在线玩家才能开始", ctx.Settings.MinPlayers),
			))
			return ErrNotEnoughPlayers
		}

		dropOfflineSeats(ctx)

		zap.L().Info(
			"游戏开始",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", req.From),
			zap.Int("players", len(ctx.Players)),
		)

		wsh.onSwitch(startRound(ctx))
		return nil
	}

	if guessReq := TryUnwrapGuessRequest(req); guessReq != nil {
		return relayChat(ctx, req.From, guessReq.Text)
	}

	if TryUnwrapHintRequest(req) != nil {
		return noActiveRound(ctx, req.From)
	}

	if TryUnwrapPlayAgainRequest(req) != nil {
		return ErrInvalidTransition
	}

	return ErrUnknownRequest
}

// ---------------------------------------------------------------------------

// 作画阶段对应一个进行中的回合
type drawStageHandler struct {
	baseStageHandler
}

func NewDrawStageHandler() *drawStageHandler {
	return &drawStageHandler{}
}

func (dsh *drawStageHandler) Stage() string {
	return STAGE_DRAWING
}

func (dsh *drawStageHandler) OnEnter(ctx *GameContext) {
	round := ctx.Round
	drawer, _ := ctx.GetPlayer(round.DrawerID)

	ctx.Status = STATUS_PLAYING
	ctx.Remaining = ctx.Settings.RoundSeconds

	public := RoundStartResponse{
		Role:       ROLE_GUESSER,
		Round:      round.Number,
		MaxRounds:  ctx.Settings.MaxRounds,
		DrawerID:   drawer.ID,
		DrawerName: drawer.Name,
		Hint:       round.HintMask,
		Duration:   ctx.Settings.RoundSeconds,
	}

	private := public
	private.Role = ROLE_DRAWER
	private.Word = round.Word

	ctx.BroadcastExcept(drawer.ID, WrapResponse(RESP_ROUND_START, public))
	ctx.UnicastResp(drawer.ID, WrapResponse(RESP_ROUND_START, private))
	ctx.broadcastPlayerList()

	ctx.SetTimeout(TIMEOUT_TICK, ctx.Settings.TickInterval)

	zap.L().Info(
		"回合开始",
		zap.String("room_id", ctx.RoomID),
		zap.Int("round", round.Number),
		zap.String("drawer_id", drawer.ID),
	)
}

func (dsh *drawStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := dsh.handleCommon(ctx, req); handled {
		return err
	}

	if tmoReq := TryUnwrapTimeoutRequest(req); tmoReq != nil {
		if !ctx.consumeTimeout(tmoReq, TIMEOUT_TICK) {
			return nil
		}

		onTick(ctx)
		if !ctx.Round.Active() {
			dsh.onSwitch(STAGE_ROUND_END)
		}
		return nil
	}

	if guessReq := TryUnwrapGuessRequest(req); guessReq != nil {
		err := onGuess(ctx, req.From, guessReq.Text)
		if !ctx.Round.Active() {
			dsh.onSwitch(STAGE_ROUND_END)
		}
		return err
	}

	if TryUnwrapHintRequest(req) != nil {
		return onHint(ctx, req.From)
	}

	if TryUnwrapPlayAgainRequest(req) != nil {
		if err := requireHost(ctx, req.From); err != nil {
			return err
		}
		dsh.onSwitch(resetGame(ctx))
		return nil
	}

	if TryUnwrapStartGameRequest(req) != nil {
		return ErrInvalidTransition
	}

	return ErrUnknownRequest
}

// onTick 倒计时减一，归零时以超时结束回合
func onTick(ctx *GameContext) {
	ctx.Remaining--
	if ctx.Remaining < 0 {
		ctx.Remaining = 0
	}

	zap.L().Debug(
		"倒计时",
		zap.String("room_id", ctx.RoomID),
		zap.Int("remaining", ctx.Remaining),
	)

	ctx.BroadcastResp(WrapResponse(
		RESP_TIMER_UPDATE,
		TimerUpdateResponse{Round: ctx.Round.Number, Remaining: ctx.Remaining},
	))

	if ctx.Remaining == 0 {
		endRound(ctx, END_REASON_TIMEOUT)
		return
	}

	ctx.SetTimeout(TIMEOUT_TICK, ctx.Settings.TickInterval)
}

func onGuess(ctx *GameContext, playerID, text string) error {
	round := ctx.Round

	player, _ := ctx.GetPlayer(playerID)
	if player == nil {
		return ErrUnknownPlayer
	}

	// 画手的发言既不计分也不会结束回合
	if playerID == round.DrawerID {
		return nil
	}

	if !round.Matches(text) {
		return relayChat(ctx, playerID, text)
	}

	if !round.IsEligible(playerID) {
		ctx.UnicastResp(playerID, WrapNotice(NOTICE_CANNOT_SCORE, "本回合开始后加入的玩家要到下一回合才能得分"))
		return nil
	}

	if !round.recordGuess(playerID) {
		return nil
	}

	player.HasGuessed = true
	player.Score += ctx.Settings.GuessAward
	if drawer, _ := ctx.GetPlayer(round.DrawerID); drawer != nil {
		drawer.Score += ctx.Settings.DrawerAward
	}

	zap.L().Info(
		"玩家猜中",
		zap.String("room_id", ctx.RoomID),
		zap.Int("round", round.Number),
		zap.String("player_id", playerID),
	)

	ctx.BroadcastResp(WrapResponse(
		RESP_CORRECT_GUESS,
		CorrectGuessResponse{PlayerID: player.ID, PlayerName: player.Name},
	))
	ctx.BroadcastResp(WrapResponse(
		RESP_SCORE_UPDATE,
		ScoreUpdateResponse{Scores: ctx.Scores()},
	))

	if round.AllGuessed() {
		endRound(ctx, END_REASON_ALL_GUESSED)
	}

	return nil
}

func onHint(ctx *GameContext, playerID string) error {
	round := ctx.Round

	if player, _ := ctx.GetPlayer(playerID); player == nil {
		return ErrUnknownPlayer
	}

	if RevealedCount(round.HintMask) >= HintRevealCap(round.Word) {
		ctx.UnicastResp(playerID, WrapNotice(NOTICE_HINT_EXHAUSTED, "本回合的提示已用完"))
		return nil
	}

	round.HintMask = RevealNext(round.HintMask, round.Word)

	ctx.BroadcastResp(WrapResponse(
		RESP_HINT_UPDATED,
		HintUpdatedResponse{Hint: round.HintMask},
	))

	return nil
}

// ---------------------------------------------------------------------------

// 回合结算阶段：答案已公布，等待 SettleDelay 后开始下一回合
type roundEndStageHandler struct {
	baseStageHandler
}

func NewRoundEndStageHandler() *roundEndStageHandler {
	return &roundEndStageHandler{}
}

func (resh *roundEndStageHandler) Stage() string {
	return STAGE_ROUND_END
}

func (resh *roundEndStageHandler) OnEnter(ctx *GameContext) {
	ctx.SetTimeout(TIMEOUT_SETTLE, ctx.Settings.SettleDelay)
}

func (resh *roundEndStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := resh.handleCommon(ctx, req); handled {
		return err
	}

	if tmoReq := TryUnwrapTimeoutRequest(req); tmoReq != nil {
		if !ctx.consumeTimeout(tmoReq, TIMEOUT_SETTLE) {
			return nil
		}
		resh.onSwitch(startRound(ctx))
		return nil
	}

	if TryUnwrapGuessRequest(req) != nil || TryUnwrapHintRequest(req) != nil {
		return noActiveRound(ctx, req.From)
	}

	if TryUnwrapPlayAgainRequest(req) != nil {
		if err := requireHost(ctx, req.From); err != nil {
			return err
		}
		resh.onSwitch(resetGame(ctx))
		return nil
	}

	if TryUnwrapStartGameRequest(req) != nil {
		return ErrInvalidTransition
	}

	return ErrUnknownRequest
}

// ---------------------------------------------------------------------------

// 结束阶段：公布排名，任意在座玩家可以再来一局
type finishStageHandler struct {
	baseStageHandler
}

func NewFinishStageHandler() *finishStageHandler {
	return &finishStageHandler{}
}

func (fsh *finishStageHandler) Stage() string {
	return STAGE_FINISHED
}

func (fsh *finishStageHandler) OnEnter(ctx *GameContext) {
	ctx.ClearTimeout()
	ctx.Status = STATUS_FINISHED
	ctx.Remaining = 0

	standings := ComputeStandings(ctx.Players)

	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_OVER,
		GameOverResponse{Standings: standings, Draw: standings.IsDraw()},
	))

	zap.L().Info(
		"游戏结束",
		zap.String("room_id", ctx.RoomID),
		zap.Int("rounds", ctx.RoundsPlayed),
		zap.Int("winners", len(standings.Winners)),
	)
}

func (fsh *finishStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if handled, err := fsh.handleCommon(ctx, req); handled {
		return err
	}

	if TryUnwrapPlayAgainRequest(req) != nil {
		if player, _ := ctx.GetPlayer(req.From); player == nil {
			return ErrUnknownPlayer
		}
		fsh.onSwitch(resetGame(ctx))
		return nil
	}

	if guessReq := TryUnwrapGuessRequest(req); guessReq != nil {
		return relayChat(ctx, req.From, guessReq.Text)
	}

	if TryUnwrapHintRequest(req) != nil {
		return noActiveRound(ctx, req.From)
	}

	if TryUnwrapStartGameRequest(req) != nil {
		return ErrInvalidTransition
	}

	return ErrUnknownRequest
}

// ---------------------------------------------------------------------------

// 关闭阶段只执行 OnEnter，随后事件循环退出
type closeStageHandler struct {
	baseStageHandler
}

func NewCloseStageHandler() *closeStageHandler {
	return &closeStageHandler{}
}

func (csh *closeStageHandler) Stage() string {
	return STAGE_CLOSED
}

func (csh *closeStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_CLOSED

	if ctx.Round.Active() {
		endRound(ctx, END_REASON_ABORTED)
	}
	ctx.ClearTimeout()

	// 事件循环即将退出，不会再有人写这些通道
	for _, p := range ctx.Players {
		if p.RespCh != nil {
			close(p.RespCh)
			p.RespCh = nil
		}
	}

	zap.L().Info("房间已关闭", zap.String("room_id", ctx.RoomID))
}

func (csh *closeStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	return ErrRoomClosed
}

// ---------------------------------------------------------------------------

// startRound 开始下一回合。超过最大回合数时不创建回合，返回 Finished。
func startRound(ctx *GameContext) string {
	next := ctx.RoundsPlayed + 1
	if next > ctx.Settings.MaxRounds {
		return STAGE_FINISHED
	}

	if len(ctx.Players) == 0 {
		return STAGE_CLOSED
	}

	ctx.CurrentTurnIndex %= len(ctx.Players)
	drawer := ctx.Players[ctx.CurrentTurnIndex]

	word := strings.TrimSpace(ctx.Words.Next())

	guessers := make([]string, 0, len(ctx.Players)-1)
	for _, p := range ctx.Players {
		p.HasGuessed = false
		if p.ID != drawer.ID {
			guessers = append(guessers, p.ID)
		}
	}

	ctx.RoundsPlayed = next
	ctx.Round = newRound(next, drawer.ID, word, guessers, ctx.now())

	return STAGE_DRAWING
}

// endRound 结束当前回合，只有第一次调用生效。
// 取消定时器、公布答案、写入会话日志并轮换画手。
func endRound(ctx *GameContext, reason string) bool {
	round := ctx.Round
	if !round.end(reason, ctx.now()) {
		return false
	}

	ctx.ClearTimeout()
	ctx.Remaining = 0

	ctx.BroadcastResp(WrapResponse(
		RESP_ROUND_END,
		RoundEndResponse{
			Round:      round.Number,
			Word:       round.Word,
			Reason:     reason,
			GuessedIDs: append([]string(nil), round.Guessed...),
			Scores:     ctx.Scores(),
		},
	))

	ctx.SessionLog.Submit(round.record(ctx.RoomID))

	if len(ctx.Players) > 0 {
		ctx.CurrentTurnIndex = (ctx.CurrentTurnIndex + 1) % len(ctx.Players)
	}

	zap.L().Info(
		"回合结束",
		zap.String("room_id", ctx.RoomID),
		zap.Int("round", round.Number),
		zap.String("reason", reason),
		zap.Int("guessed", len(round.Guessed)),
	)

	return true
}

// resetGame 清空分数和回合计数，回到等待阶段。断线的座位在此时释放。
func resetGame(ctx *GameContext) string {
	if ctx.Round.Active() {
		endRound(ctx, END_REASON_ABORTED)
	}
	ctx.ClearTimeout()

	dropOfflineSeats(ctx)
	for _, p := range ctx.Players {
		p.Score = 0
		p.HasGuessed = false
	}

	ctx.CurrentTurnIndex = 0
	ctx.RoundsPlayed = 0
	ctx.Round = nil

	if len(ctx.Players) == 0 {
		return STAGE_CLOSED
	}

	zap.L().Info("再来一局", zap.String("room_id", ctx.RoomID))

	return STAGE_WAITING
}

func requireHost(ctx *GameContext, playerID string) error {
	if playerID == ctx.HostID {
		return nil
	}

	if player, _ := ctx.GetPlayer(playerID); player == nil {
		return ErrUnknownPlayer
	}

	ctx.UnicastResp(playerID, WrapNotice(NOTICE_NOT_HOST, "只有房主可以在游戏进行中重新开始"))
	return ErrNotHost
}

// dropOfflineSeats 释放断线玩家的座位，包括 HTTP 建房后从未连接的房主。
// 开局和再来一局时调用，游戏进行中的断线座位保留。
func dropOfflineSeats(ctx *GameContext) {
	before := len(ctx.Players)
	ctx.Players = slices.DeleteFunc(ctx.Players, func(p *Player) bool {
		return !p.Connected()
	})

	if dropped := before - len(ctx.Players); dropped > 0 {
		zap.L().Info(
			"释放断线玩家的座位",
			zap.String("room_id", ctx.RoomID),
			zap.Int("dropped", dropped),
		)
	}

	ensureHost(ctx)
}

// ensureHost 房主座位不存在时交给第一个座位
func ensureHost(ctx *GameContext) {
	if host, _ := ctx.GetPlayer(ctx.HostID); host != nil {
		return
	}

	if len(ctx.Players) == 0 {
		ctx.HostID = ""
		return
	}

	ctx.HostID = ctx.Players[0].ID

	zap.L().Info(
		"房主已转交",
		zap.String("room_id", ctx.RoomID),
		zap.String("host_id", ctx.HostID),
	)
}

// ---------------------------------------------------------------------------

func onPlayerJoin(ctx *GameContext, req *JoinGameRequest) (PublicPlayer, error) {
	name := strings.TrimSpace(req.JoinerName)

	// 相同 ID 视为重连：替换连接，保留分数和座位
	if req.PlayerID != "" {
		if existing, _ := ctx.GetPlayer(req.PlayerID); existing != nil {
			if existing.RespCh != nil && existing.RespCh != req.RespCh {
				close(existing.RespCh)
				zap.L().Debug(
					"已关闭旧连接的响应通道（按 ID 重连）",
					zap.String("room_id", ctx.RoomID),
					zap.String("player_id", existing.ID),
				)
			}

			existing.RespCh = req.RespCh
			if name != "" {
				existing.Name = name
			}

			zap.L().Info(
				"玩家重连",
				zap.String("room_id", ctx.RoomID),
				zap.String("player_id", existing.ID),
			)

			ackJoin(ctx, existing)
			return ctx.publicPlayer(existing), nil
		}
	}

	if len(ctx.Players) >= ctx.Settings.MaxPlayers {
		return PublicPlayer{}, ErrRoomFull
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = GenShortID()
	}
	if name == "" {
		name = "Player-" + playerID
	}

	player := &Player{
		ID:     playerID,
		Name:   name,
		RespCh: req.RespCh,
	}
	ctx.Players = append(ctx.Players, player)

	if ctx.HostID == "" {
		ctx.HostID = player.ID
	}

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_id", ctx.RoomID),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
		zap.Int("seat", len(ctx.Players)-1),
	)

	ackJoin(ctx, player)
	return ctx.publicPlayer(player), nil
}

// ackJoin 给加入者发送房间信息，进行中的回合补发公开的回合信息
func ackJoin(ctx *GameContext, player *Player) {
	if player.Connected() {
		ctx.UnicastResp(player.ID, WrapResponse(
			RESP_JOIN_GAME,
			JoinGameResponse{
				RoomID:  ctx.RoomID,
				Status:  ctx.Status,
				Joiner:  ctx.publicPlayer(player),
				HostID:  ctx.HostID,
				Players: ctx.PublicPlayers(),
			},
		))

		if ctx.Round.Active() {
			drawer, _ := ctx.GetPlayer(ctx.Round.DrawerID)

			resp := RoundStartResponse{
				Role:       ROLE_GUESSER,
				Round:      ctx.Round.Number,
				MaxRounds:  ctx.Settings.MaxRounds,
				DrawerID:   drawer.ID,
				DrawerName: drawer.Name,
				Hint:       ctx.Round.HintMask,
				Duration:   ctx.Remaining,
			}
			if drawer.ID == player.ID {
				resp.Role = ROLE_DRAWER
				resp.Word = ctx.Round.Word
			}

			ctx.UnicastResp(player.ID, WrapResponse(RESP_ROUND_START, resp))
		}
	}

	ctx.broadcastPlayerList()
}

// onPlayerExit 处理断线或主动退出。等待阶段释放座位，其余阶段只标记断线以保留座位顺序和分数。
// 返回 true 表示房间已没有在线玩家，应当关闭。
func onPlayerExit(ctx *GameContext, playerID string, reqRespCh chan ResponseWrapper) bool {
	player, idx := ctx.GetPlayer(playerID)
	if player == nil {
		zap.L().Warn(
			"玩家不存在，无法退出",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", playerID),
		)
		return false
	}

	// 已被重连顶替的旧连接，通道已经关闭，这里什么都不做
	if player.RespCh != reqRespCh {
		zap.L().Info(
			"检测到旧连接退出（已被顶替），忽略",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", playerID),
		)
		return false
	}

	if player.RespCh != nil {
		select {
		case player.RespCh <- WrapResponse(
			RESP_EXIT_GAME,
			ExitGameResponse{LeftPlayerID: player.ID, LeftPlayerName: player.Name},
		):
		default:
			zap.L().Warn(
				"发送退出确认响应失败：响应通道已满",
				zap.String("player_id", playerID),
			)
		}

		close(player.RespCh)
		player.RespCh = nil
	}

	if ctx.Status == STATUS_WAITING {
		ctx.Players = slices.Delete(ctx.Players, idx, idx+1)
		ensureHost(ctx)

		zap.L().Info(
			"玩家离开房间，座位已释放",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", playerID),
		)
	} else {
		zap.L().Info(
			"玩家断线，保留座位",
			zap.String("room_id", ctx.RoomID),
			zap.String("player_id", playerID),
		)
	}

	if ctx.ConnectedCount() == 0 {
		return true
	}

	ctx.BroadcastResp(WrapResponse(
		RESP_EXIT_GAME,
		ExitGameResponse{LeftPlayerID: player.ID, LeftPlayerName: player.Name},
	))
	ctx.broadcastPlayerList()

	return false
}

// IsRoomError reports whether err should be shown to the client that caused it.
func IsRoomError(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrRoomFull)
}
