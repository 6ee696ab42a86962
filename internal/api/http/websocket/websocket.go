package websocket

import (
	"net/http"
	"time"

	"draw-guess-be/internal/config"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔，单位秒
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间，单位秒
	HEARTBEAT_TIMEOUT = 45 * time.Second

	// 首条 JoinGame 消息必须在这段时间内到达
	JOIN_TIMEOUT = 10 * time.Second
	// 断开后等待房间确认退出的时间
	EXIT_TIMEOUT = 3 * time.Second

	MAX_MESSAGE_SIZE = 64 * 1024
)

// transportSettings 把配置中的零值替换为默认值
type transportSettings struct {
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	limit             rate.Limit
	burst             int
}

func newTransportSettings(cfg config.TransportConfig) transportSettings {
	s := transportSettings{
		heartbeatInterval: cfg.HeartbeatInterval,
		heartbeatTimeout:  cfg.HeartbeatTimeout,
		limit:             rate.Limit(cfg.MessagesPerSecond),
		burst:             cfg.Burst,
	}

	if s.heartbeatInterval <= 0 {
		s.heartbeatInterval = HEARTBEAT_INTERVAL
	}
	if s.heartbeatTimeout <= 0 {
		s.heartbeatTimeout = HEARTBEAT_TIMEOUT
	}
	if s.limit <= 0 {
		s.limit = rate.Inf
	}
	if s.burst <= 0 {
		s.burst = 1
	}

	return s
}

func (s transportSettings) newLimiter() *rate.Limiter {
	return rate.NewLimiter(s.limit, s.burst)
}

var heartbeatHandler = func(conn *websocket.Conn, timeout time.Duration) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(timeout))
		return nil
	}
}
