package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// 传输层自己产生的错误码，通过 Error 响应返回给客户端
const (
	ERR_INVALID_REQUEST  = "invalid-request"
	ERR_JOIN_REQUIRED    = "join-required"
	ERR_UNKNOWN_REQUEST  = "unknown-request"
	ERR_RATE_LIMITED     = "rate-limited"
	ERR_JOIN_FAILED      = "join-failed"
	ERR_ROOM_UNAVAILABLE = "room-unavailable"
)

func JoinGame(appState *state.AppState) iris.Handler {
	settings := newTransportSettings(appState.Cfg.Transport)

	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		clientIP := ctx.RemoteAddr()

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(JOIN_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn, settings.heartbeatTimeout))

		// 读取首次请求，必须是 JoinGame
		req, errCode := readJoinRequest(conn)
		if req == nil {
			zap.L().Warn(
				"首次请求无效",
				zap.String("client_ip", clientIP),
				zap.String("error", errCode),
			)
			conn.WriteJSON(game.WrapErrResponse(errCode))
			return
		}

		respCh := make(chan game.ResponseWrapper, 64)
		req.RespCh = respCh

		gm, player, err := appState.RoomSvc.JoinRoom(context.Background(), req)
		if err != nil {
			zap.L().Warn(
				"加入房间失败",
				zap.String("client_ip", clientIP),
				zap.String("room_id", req.RoomID),
				zap.Error(err),
			)

			errMsg := ERR_JOIN_FAILED
			if game.IsRoomError(err) {
				errMsg = err.Error()
			}
			conn.WriteJSON(game.WrapErrResponse(errMsg))
			return
		}

		roomID := gm.RoomID()
		playerID := player.ID

		zap.L().Info(
			"玩家成功加入房间",
			zap.String("client_ip", clientIP),
			zap.String("room_id", roomID),
			zap.String("player_id", playerID),
			zap.String("player_name", player.Name),
		)

		conn.SetReadDeadline(time.Now().Add(settings.heartbeatTimeout))

		// 传输层自己的错误响应走单独的通道，respCh 只由房间状态机写入和关闭
		localCh := make(chan game.ResponseWrapper, 8)
		writeDoneCh := make(chan struct{})
		writerExitedCh := make(chan struct{})

		go writeLoop(conn, settings, clientIP, respCh, localCh, writeDoneCh, writerExitedCh)

		readLoop(conn, gm, settings, clientIP, playerID, localCh)

		// 读循环退出，表示客户端断开连接，通知房间清理玩家
		zap.L().Info(
			"客户端连接断开，发送退出请求",
			zap.String("client_ip", clientIP),
			zap.String("room_id", roomID),
			zap.String("player_id", playerID),
		)

		if err := appState.RoomSvc.Leave(roomID, playerID, respCh); err != nil {
			zap.L().Warn(
				"发送退出请求失败",
				zap.String("room_id", roomID),
				zap.String("player_id", playerID),
				zap.Error(err),
			)
		}

		// 房间处理退出后会关闭 respCh，写协程随之退出
		select {
		case <-writerExitedCh:
		case <-time.After(EXIT_TIMEOUT):
			zap.L().Warn(
				"等待退出确认超时，强制退出",
				zap.String("player_id", playerID),
			)
		}
		close(writeDoneCh)

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)
	}
}

func readJoinRequest(conn *websocket.Conn) (*game.JoinGameRequest, string) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, ERR_JOIN_REQUIRED
	}

	var wrapper game.RequestWrapper
	if err := json.Unmarshal(msg, &wrapper); err != nil {
		return nil, ERR_INVALID_REQUEST
	}

	req := game.TryUnwrapJoinGameRequest(wrapper)
	if req == nil {
		return nil, ERR_JOIN_REQUIRED
	}

	return req, ""
}

func readLoop(
	conn *websocket.Conn,
	gm *game.GameMachine,
	settings transportSettings,
	clientIP, playerID string,
	localCh chan<- game.ResponseWrapper,
) {
	limiter := settings.newLimiter()

	reply := func(errMsg string) {
		select {
		case localCh <- game.WrapErrResponse(errMsg):
		default:
		}
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				zap.L().Error(
					"读取消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
			}
			return
		}

		if !limiter.Allow() {
			zap.L().Debug(
				"请求过于频繁，丢弃",
				zap.String("client_ip", clientIP),
				zap.String("player_id", playerID),
			)
			reply(ERR_RATE_LIMITED)
			continue
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Debug(
				"解析消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			reply(ERR_INVALID_REQUEST)
			continue
		}

		if !game.IsClientRequest(wrapper.ReqType) {
			reply(ERR_UNKNOWN_REQUEST)
			continue
		}

		// 主动退出与断开连接走同一条路径
		if wrapper.ReqType == game.REQ_EXIT_GAME {
			return
		}

		// 发送者身份由加入时确定，忽略客户端填写的任何身份
		wrapper.From = playerID

		switch err := gm.Submit(wrapper); {
		case err == nil:
		case errors.Is(err, game.ErrRoomBusy):
			zap.L().Warn(
				"发送请求到游戏状态机失败：请求通道已满",
				zap.String("room_id", gm.RoomID()),
				zap.String("player_id", playerID),
			)
			reply(err.Error())
		default:
			reply(ERR_ROOM_UNAVAILABLE)
			return
		}
	}
}

func writeLoop(
	conn *websocket.Conn,
	settings transportSettings,
	clientIP string,
	respCh <-chan game.ResponseWrapper,
	localCh <-chan game.ResponseWrapper,
	writeDoneCh <-chan struct{},
	writerExitedCh chan<- struct{},
) {
	defer close(writerExitedCh)

	ticker := time.NewTicker(settings.heartbeatInterval)
	defer ticker.Stop()

	write := func(resp game.ResponseWrapper) bool {
		conn.SetWriteDeadline(time.Now().Add(settings.heartbeatTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			zap.L().Error(
				"发送消息失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return false
		}
		return true
	}

	for {
		select {
		case <-writeDoneCh:
			return

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(settings.heartbeatTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Error(
					"发送心跳失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
				return
			}

		case resp := <-localCh:
			if !write(resp) {
				return
			}

		case resp, ok := <-respCh:
			// 玩家退出或被重连顶替时状态机关闭了通道
			if !ok {
				zap.L().Info(
					"响应通道已关闭，退出写协程",
					zap.String("client_ip", clientIP),
				)
				conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				return
			}

			if !write(resp) {
				return
			}
		}
	}
}
