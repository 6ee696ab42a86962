package game

import "encoding/json"

type JoinGameRequest struct {
	RoomID     string `json:"room_id"`
	PlayerID   string `json:"player_id"`
	JoinerName string `json:"display_name"`

	// 为空表示只占座不连接（HTTP 创建房间时的房主）
	RespCh   chan ResponseWrapper `json:"-"`
	ResultCh chan JoinResult      `json:"-"`
}

type JoinResult struct {
	Player PublicPlayer
	Err    error
}

type JoinGameResponse struct {
	RoomID  string         `json:"room_id"`
	Status  string         `json:"status"`
	Joiner  PublicPlayer   `json:"joiner"`
	HostID  string         `json:"host_id"`
	Players []PublicPlayer `json:"players"`
}

type StartGameRequest struct{}

type GuessRequest struct {
	Text string `json:"text"`
}

type HintRequest struct{}

type StrokeRequest struct {
	Stroke json.RawMessage `json:"stroke"`
}

type PlayAgainRequest struct{}

type ExitGameRequest struct {
	PlayerID string
	// 发起退出的连接，用来区分已被重连顶替的旧连接
	RespCh chan ResponseWrapper
}

type ExitGameResponse struct {
	LeftPlayerID   string `json:"left_player_id"`
	LeftPlayerName string `json:"left_player_name"`
}

const (
	TIMEOUT_TICK   = "Tick"
	TIMEOUT_SETTLE = "Settle"
)

type TimeoutRequest struct {
	Kind string
	Seq  uint64
}

type SnapshotRequest struct {
	ReplyCh chan RoomSnapshot
}

type PlayerListResponse struct {
	HostID  string         `json:"host_id"`
	Players []PublicPlayer `json:"players"`
}

const (
	ROLE_DRAWER  = "drawer"
	ROLE_GUESSER = "guesser"
)

type RoundStartResponse struct {
	Role       string `json:"role"`
	Round      int    `json:"round"`
	MaxRounds  int    `json:"max_rounds"`
	DrawerID   string `json:"drawer_id"`
	DrawerName string `json:"drawer_name"`
	Hint       string `json:"hint"`
	// 只有画手的私有通知才带明文词语
	Word     string `json:"word,omitempty"`
	Duration int    `json:"duration"`
}

type HintUpdatedResponse struct {
	Hint string `json:"hint"`
}

type TimerUpdateResponse struct {
	Round     int `json:"round"`
	Remaining int `json:"remaining"`
}

type CorrectGuessResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

type ScoreUpdateResponse struct {
	Scores []ScoreEntry `json:"scores"`
}

type RoundEndResponse struct {
	Round      int          `json:"round"`
	Word       string       `json:"word"`
	Reason     string       `json:"reason"`
	GuessedIDs []string     `json:"guessed_ids"`
	Scores     []ScoreEntry `json:"scores"`
}

type GameOverResponse struct {
	Standings Standings `json:"standings"`
	Draw      bool      `json:"draw"`
}

type ChatResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
}

type StrokeResponse struct {
	PlayerID string          `json:"player_id"`
	Stroke   json.RawMessage `json:"stroke"`
}

type NoticeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
