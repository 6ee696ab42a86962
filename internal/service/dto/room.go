package dto

import "draw-guess-be/internal/sessionlog"

// 创建房间时可以覆盖的取值范围
const (
	MIN_MAX_PLAYERS = 2
	MAX_MAX_PLAYERS = 20
	MIN_MAX_ROUNDS  = 1
	MAX_MAX_ROUNDS  = 10
)

// 为零的字段使用服务端默认值
type CreateRoomRequest struct {
	HostName   string `json:"host_name"`
	MaxPlayers int    `json:"max_players"`
	MaxRounds  int    `json:"max_rounds"`
}

// 房主的座位已经占好，用 PlayerID 通过 WebSocket 加入即可上线
type CreateRoomResponse struct {
	RoomID     string `json:"room_id"`
	PlayerID   string `json:"player_id"`
	HostName   string `json:"host_name"`
	MaxPlayers int    `json:"max_players"`
	MaxRounds  int    `json:"max_rounds"`
}

type RoundHistoryResponse struct {
	RoomID string                   `json:"room_id"`
	Rounds []sessionlog.RoundRecord `json:"rounds"`
}
