package service

import (
	"fmt"
	"strings"
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
)

// isRoomValid 判断房间是否还需要保留。已退出的房间，以及长时间没有在线玩家的房间都会被清理。
func isRoomValid(gm *game.GameMachine, now time.Time, idleTTL time.Duration) bool {
	if gm == nil || gm.IsClosed() {
		return false
	}

	if gm.ConnectedCount() > 0 {
		return true
	}

	return now.Sub(gm.LastActive()) < idleTTL
}

// roomSettings 用请求中的覆盖项生成一个房间自己的配置
func roomSettings(base config.GameConfig, req dto.CreateRoomRequest) (config.GameConfig, error) {
	settings := base

	if req.MaxPlayers != 0 {
		if req.MaxPlayers < dto.MIN_MAX_PLAYERS || req.MaxPlayers > dto.MAX_MAX_PLAYERS {
			return settings, fmt.Errorf(
				"%w: max_players must be between %d and %d",
				ErrInvalidRoomSettings, dto.MIN_MAX_PLAYERS, dto.MAX_MAX_PLAYERS,
			)
		}
		settings.MaxPlayers = req.MaxPlayers
	}

	if req.MaxRounds != 0 {
		if req.MaxRounds < dto.MIN_MAX_ROUNDS || req.MaxRounds > dto.MAX_MAX_ROUNDS {
			return settings, fmt.Errorf(
				"%w: max_rounds must be between %d and %d",
				ErrInvalidRoomSettings, dto.MIN_MAX_ROUNDS, dto.MAX_MAX_ROUNDS,
			)
		}
		settings.MaxRounds = req.MaxRounds
	}

	if settings.MinPlayers > settings.MaxPlayers {
		settings.MinPlayers = settings.MaxPlayers
	}

	return settings, nil
}

func normalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}
