package http

import (
	"errors"
	"strings"

	"draw-guess-be/internal/service"
	"draw-guess-be/internal/service/dto"
	"draw-guess-be/internal/service/game"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func Health(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"status": "ok",
			"rooms":  appState.RoomSvc.Count(),
		})
	}
}

func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.CreateRoomRequest

		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": "请求参数无效",
			})
			return
		}

		resp, err := appState.RoomSvc.CreateRoom(req)
		if err != nil {
			status := iris.StatusInternalServerError
			switch {
			case errors.Is(err, service.ErrHostNameRequired), errors.Is(err, service.ErrInvalidRoomSettings):
				status = iris.StatusBadRequest
			case errors.Is(err, service.ErrServiceClosed):
				status = iris.StatusServiceUnavailable
			}

			ctx.StatusCode(status)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(resp)
	}
}

func GetRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		snap, err := appState.RoomSvc.GetRoom(ctx.Request().Context(), ctx.Params().Get("id"))
		if err != nil {
			status := iris.StatusInternalServerError
			if errors.Is(err, game.ErrRoomNotFound) {
				status = iris.StatusNotFound
			}

			ctx.StatusCode(status)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(snap)
	}
}

// GetRoundHistory 读取会话日志中记录的回合，房间是否仍然存在无关紧要
func GetRoundHistory(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if appState.History == nil {
			ctx.StatusCode(iris.StatusServiceUnavailable)
			ctx.JSON(iris.Map{
				"error": sessionlog.ErrDisabled.Error(),
			})
			return
		}

		roomID := strings.ToUpper(strings.TrimSpace(ctx.Params().Get("id")))

		rounds, err := appState.History.History(ctx.Request().Context(), roomID)
		if err != nil {
			zap.L().Error(
				"读取回合历史失败",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"error": "读取回合历史失败",
			})
			return
		}

		if rounds == nil {
			rounds = []sessionlog.RoundRecord{}
		}

		ctx.JSON(dto.RoundHistoryResponse{
			RoomID: roomID,
			Rounds: rounds,
		})
	}
}
