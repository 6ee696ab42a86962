package game

// 房间状态
const (
	STATUS_WAITING  = "Waiting"
	STATUS_PLAYING  = "Playing"
	STATUS_FINISHED = "Finished"
)

// Player 是房间内的一个座位。RespCh 为空表示该玩家当前断线。
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"has_guessed"`

	RespCh chan ResponseWrapper `json:"-"`
}

func (p *Player) Connected() bool {
	return p.RespCh != nil
}

// PublicPlayer 是可以广播给所有人的玩家信息
type PublicPlayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	HasGuessed bool   `json:"has_guessed"`
	Connected  bool   `json:"connected"`
	IsHost     bool   `json:"is_host"`
}

// RoomSnapshot 是房间状态的只读拷贝，供 HTTP 查询使用
type RoomSnapshot struct {
	RoomID           string         `json:"room_id"`
	Status           string         `json:"status"`
	Stage            string         `json:"stage"`
	HostID           string         `json:"host_id"`
	Players          []PublicPlayer `json:"players"`
	MaxPlayers       int            `json:"max_players"`
	MaxRounds        int            `json:"max_rounds"`
	Round            int            `json:"round"`
	CurrentTurnIndex int            `json:"current_turn_index"`
	DrawerID         string         `json:"drawer_id,omitempty"`
	Hint             string         `json:"hint,omitempty"`
	Remaining        int            `json:"remaining"`
}
