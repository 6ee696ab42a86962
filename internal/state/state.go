package state

import (
	"draw-guess-be/internal/config"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/sessionlog"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
	// 为空表示没有开启会话日志
	History sessionlog.Store
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
	history sessionlog.Store,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
		History: history,
	}
}
