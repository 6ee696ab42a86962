package game

import "errors"

var (
	ErrRoomNotFound      = errors.New("room-not-found")
	ErrRoomFull          = errors.New("room-full")
	ErrInvalidTransition = errors.New("invalid-transition")
	ErrNoActiveRound     = errors.New("no-active-round")
	ErrNotEnoughPlayers  = errors.New("not-enough-players")
	ErrNotHost           = errors.New("not-host")
	ErrUnknownPlayer     = errors.New("unknown-player")
	ErrUnknownRequest    = errors.New("unknown-request")

	// 状态机已退出
	ErrRoomClosed = errors.New("room-closed")
	// 请求队列已满
	ErrRoomBusy = errors.New("room-busy")
)
