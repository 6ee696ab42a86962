package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME  = "JoinGame"
	REQ_START_GAME = "StartGame"
	REQ_GUESS      = "Guess"
	REQ_HINT       = "Hint"
	REQ_STROKE     = "Stroke"
	REQ_PLAY_AGAIN = "PlayAgain"
	REQ_EXIT_GAME  = "ExitGame"

	// 以下只在服务端内部产生
	REQ_TIMEOUT  = "Timeout"
	REQ_SNAPSHOT = "Snapshot"
)

// IsClientRequest reports whether a connected client may send reqType after
// it has joined a room.
func IsClientRequest(reqType string) bool {
	switch reqType {
	case REQ_START_GAME, REQ_GUESS, REQ_HINT, REQ_STROKE, REQ_PLAY_AGAIN, REQ_EXIT_GAME:
		return true
	}

	return false
}

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 由传输层在加入房间后填充，客户端无法伪造
	From string `json:"-"`
	// 服务端内部请求直接携带结构体，不经过 JSON
	NativeData any `json:"-"`
}

func unwrap[T any](wrapper RequestWrapper, reqType string) *T {
	if wrapper.ReqType != reqType {
		return nil
	}

	if native, ok := wrapper.NativeData.(*T); ok {
		return native
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Error(
			"解析请求失败",
			zap.String("request_type", reqType),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	return unwrap[JoinGameRequest](wrapper, REQ_JOIN_GAME)
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	return unwrap[StartGameRequest](wrapper, REQ_START_GAME)
}

func TryUnwrapGuessRequest(wrapper RequestWrapper) *GuessRequest {
	return unwrap[GuessRequest](wrapper, REQ_GUESS)
}

func TryUnwrapHintRequest(wrapper RequestWrapper) *HintRequest {
	return unwrap[HintRequest](wrapper, REQ_HINT)
}

func TryUnwrapStrokeRequest(wrapper RequestWrapper) *StrokeRequest {
	return unwrap[StrokeRequest](wrapper, REQ_STROKE)
}

func TryUnwrapPlayAgainRequest(wrapper RequestWrapper) *PlayAgainRequest {
	return unwrap[PlayAgainRequest](wrapper, REQ_PLAY_AGAIN)
}

// 退出和超时只接受服务端构造的请求
func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	if wrapper.ReqType != REQ_EXIT_GAME {
		return nil
	}
	req, _ := wrapper.NativeData.(*ExitGameRequest)
	return req
}

func TryUnwrapTimeoutRequest(wrapper RequestWrapper) *TimeoutRequest {
	if wrapper.ReqType != REQ_TIMEOUT {
		return nil
	}
	req, _ := wrapper.NativeData.(*TimeoutRequest)
	return req
}

func TryUnwrapSnapshotRequest(wrapper RequestWrapper) *SnapshotRequest {
	if wrapper.ReqType != REQ_SNAPSHOT {
		return nil
	}
	req, _ := wrapper.NativeData.(*SnapshotRequest)
	return req
}

// 响应类型
const (
	RESP_ERROR  = "Error"
	RESP_NOTICE = "Notice"

	RESP_JOIN_GAME           = "JoinGame"
	RESP_EXIT_GAME           = "ExitGame"
	RESP_PLAYER_LIST_UPDATED = "PlayerListUpdated"
	RESP_ROUND_START         = "RoundStart"
	RESP_HINT_UPDATED        = "HintUpdated"
	RESP_TIMER_UPDATE        = "TimerUpdate"
	RESP_CORRECT_GUESS       = "CorrectGuess"
	RESP_SCORE_UPDATE        = "ScoreUpdate"
	RESP_ROUND_END           = "RoundEnd"
	RESP_GAME_OVER           = "GameOver"
	RESP_CHAT                = "Chat"
	RESP_STROKE              = "Stroke"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}

func WrapNotice(code, message string) ResponseWrapper {
	return WrapResponse(RESP_NOTICE, NoticeResponse{Code: code, Message: message})
}
