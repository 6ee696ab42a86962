package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"draw-guess-be/internal/config"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/state"
	"draw-guess-be/internal/words"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	rs *service.RoomService
}

func newTestServer(t *testing.T, history sessionlog.Store) *testServer {
	t.Helper()

	cfg := &config.AppConfig{
		LogLevel: "error",
		Game:     config.DefaultGameConfig(),
		Transport: config.TransportConfig{
			MessagesPerSecond: 100,
			Burst:             100,
			HeartbeatInterval: time.Second,
			HeartbeatTimeout:  5 * time.Second,
		},
	}
	cfg.Game.CleanupInterval = 0

	var recorder sessionlog.Recorder = sessionlog.Nop{}
	if history != nil {
		writer := sessionlog.NewWriter(history, 16)
		t.Cleanup(func() { writer.Close() })
		recorder = writer
	}

	rs := service.NewRoomService(cfg.Game, words.Fixed("apple"), recorder)
	t.Cleanup(rs.Close)

	app := NewApp(state.NewAppState(cfg, rs, history))
	require.NoError(t, app.Build())

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, rs: rs}
}

func (ts *testServer) postJSON(t *testing.T, path string, body any) *nethttp.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := nethttp.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func (ts *testServer) get(t *testing.T, path string) *nethttp.Response {
	t.Helper()

	resp, err := nethttp.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *nethttp.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

type wireResponse struct {
	RespType string          `json:"response_type"`
	Data     json.RawMessage `json:"data"`
	ErrMsg   string          `json:"error_message"`
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws/join"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, reqType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(game.RequestWrapper{ReqType: reqType, Data: raw}))
}

// readUntil 读取消息直到遇到指定类型
func readUntil(t *testing.T, conn *websocket.Conn, respType string) wireResponse {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var resp wireResponse
		require.NoError(t, conn.ReadJSON(&resp), "waiting for %s", respType)
		if resp.RespType == respType {
			return resp
		}
	}
}

func join(t *testing.T, ts *testServer, roomID, playerID, name string) (*websocket.Conn, game.JoinGameResponse) {
	t.Helper()

	conn := ts.dial(t)
	send(t, conn, game.REQ_JOIN_GAME, game.JoinGameRequest{RoomID: roomID, PlayerID: playerID, JoinerName: name})

	var ack game.JoinGameResponse
	require.NoError(t, json.Unmarshal(readUntil(t, conn, game.RESP_JOIN_GAME).Data, &ack))

	return conn, ack
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.get(t, "/healthz")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name   string
		body   any
		status int
	}{
		{name: "missing host name", body: dto.CreateRoomRequest{}, status: nethttp.StatusBadRequest},
		{name: "too many players", body: dto.CreateRoomRequest{HostName: "Alice", MaxPlayers: 21}, status: nethttp.StatusBadRequest},
		{name: "too few rounds", body: dto.CreateRoomRequest{HostName: "Alice", MaxRounds: -1}, status: nethttp.StatusBadRequest},
		{name: "ok", body: dto.CreateRoomRequest{HostName: "Alice", MaxPlayers: 4}, status: nethttp.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := ts.postJSON(t, "/api/v1/rooms/create", c.body)
			assert.Equal(t, c.status, resp.StatusCode)
		})
	}

	resp, err := nethttp.Post(ts.URL+"/api/v1/rooms/create", "application/json", strings.NewReader("{oops"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, nethttp.StatusNotFound, ts.get(t, "/api/v1/rooms/NOPE0000").StatusCode)

	created := decode[dto.CreateRoomResponse](t, ts.postJSON(t, "/api/v1/rooms/create", dto.CreateRoomRequest{HostName: "Alice"}))

	resp := ts.get(t, "/api/v1/rooms/"+strings.ToLower(created.RoomID))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	snap := decode[game.RoomSnapshot](t, resp)
	assert.Equal(t, created.RoomID, snap.RoomID)
	assert.Equal(t, game.STATUS_WAITING, snap.Status)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, created.PlayerID, snap.Players[0].ID)
	assert.False(t, snap.Players[0].Connected)
}

func TestRoundHistory_Disabled(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Equal(t, nethttp.StatusServiceUnavailable, ts.get(t, "/api/v1/rooms/ROOM0001/rounds").StatusCode)
}

func TestWebSocket_FirstMessageMustBeJoin(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := ts.dial(t)
	send(t, conn, game.REQ_GUESS, game.GuessRequest{Text: "hi"})

	resp := readUntil(t, conn, game.RESP_ERROR)
	assert.Equal(t, "join-required", resp.ErrMsg)
}

func TestWebSocket_RoomFull(t *testing.T) {
	ts := newTestServer(t, nil)

	created := decode[dto.CreateRoomResponse](t, ts.postJSON(t, "/api/v1/rooms/create", dto.CreateRoomRequest{HostName: "Alice", MaxPlayers: 2}))
	join(t, ts, created.RoomID, "", "Bob")

	conn := ts.dial(t)
	send(t, conn, game.REQ_JOIN_GAME, game.JoinGameRequest{RoomID: created.RoomID, JoinerName: "Carol"})

	resp := readUntil(t, conn, game.RESP_ERROR)
	assert.Equal(t, game.ErrRoomFull.Error(), resp.ErrMsg)
}

func TestWebSocket_PlayRound(t *testing.T) {
	store, err := sessionlog.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)

	ts := newTestServer(t, store)

	created := decode[dto.CreateRoomResponse](t, ts.postJSON(t, "/api/v1/rooms/create", dto.CreateRoomRequest{HostName: "Alice"}))

	alice, aliceAck := join(t, ts, created.RoomID, created.PlayerID, "")
	assert.Equal(t, created.PlayerID, aliceAck.Joiner.ID)
	assert.True(t, aliceAck.Joiner.IsHost)

	bob, bobAck := join(t, ts, created.RoomID, "", "Bob")
	assert.NotEmpty(t, bobAck.Joiner.ID)
	assert.Len(t, bobAck.Players, 2)

	send(t, alice, game.REQ_START_GAME, game.StartGameRequest{})

	var drawerStart, guesserStart game.RoundStartResponse
	require.NoError(t, json.Unmarshal(readUntil(t, alice, game.RESP_ROUND_START).Data, &drawerStart))
	require.NoError(t, json.Unmarshal(readUntil(t, bob, game.RESP_ROUND_START).Data, &guesserStart))

	assert.Equal(t, "apple", drawerStart.Word)
	assert.Equal(t, game.ROLE_DRAWER, drawerStart.Role)
	assert.Empty(t, guesserStart.Word)
	assert.Equal(t, "_____", guesserStart.Hint)

	// 笔画原样转发给其他人
	send(t, alice, game.REQ_STROKE, map[string]any{"stroke": map[string]int{"x": 3, "y": 4}})
	var stroke game.StrokeResponse
	require.NoError(t, json.Unmarshal(readUntil(t, bob, game.RESP_STROKE).Data, &stroke))
	assert.Equal(t, created.PlayerID, stroke.PlayerID)
	assert.JSONEq(t, `{"x":3,"y":4}`, string(stroke.Stroke))

	send(t, bob, game.REQ_GUESS, game.GuessRequest{Text: "APPLE"})

	var end game.RoundEndResponse
	require.NoError(t, json.Unmarshal(readUntil(t, alice, game.RESP_ROUND_END).Data, &end))
	assert.Equal(t, "apple", end.Word)
	assert.Equal(t, game.END_REASON_ALL_GUESSED, end.Reason)
	assert.Equal(t, []string{bobAck.Joiner.ID}, end.GuessedIDs)

	var history dto.RoundHistoryResponse
	require.Eventually(t, func() bool {
		resp, err := nethttp.Get(ts.URL + "/api/v1/rooms/" + created.RoomID + "/rounds")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
			return false
		}
		return len(history.Rounds) == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, created.PlayerID, history.Rounds[0].DrawerID)
	assert.Equal(t, "apple", history.Rounds[0].Word)

	// 断开连接后座位保留（游戏进行中）
	bob.Close()
	require.Eventually(t, func() bool {
		snap, err := ts.rs.GetRoom(context.Background(), created.RoomID)
		if err != nil || len(snap.Players) != 2 {
			return false
		}
		return !snap.Players[1].Connected
	}, 3*time.Second, 20*time.Millisecond)
}
