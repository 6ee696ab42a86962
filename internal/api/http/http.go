package http

import (
	"fmt"

	"draw-guess-be/internal/api/http/websocket"
	"draw-guess-be/internal/state"

	"github.com/kataras/iris/v12"
)

// NewApp 注册所有路由，测试中直接使用返回的 app
func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()
	app.Logger().SetLevel(appState.Cfg.LogLevel)

	app.Get("/healthz", Health(appState))

	api := app.Party("/api/v1")

	api.Post("/rooms/create", CreateRoom(appState))
	api.Get("/rooms/{id:string}", GetRoom(appState))
	api.Get("/rooms/{id:string}/rounds", GetRoundHistory(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	return app
}

func RunServer(appState *state.AppState) error {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	return app.Listen(addr, iris.WithoutServerError(iris.ErrServerClosed))
}
