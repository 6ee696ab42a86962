package main

import (
	"context"
	"errors"

	"draw-guess-be/internal/api/http"
	"draw-guess-be/internal/config"
	"draw-guess-be/internal/logger"
	"draw-guess-be/internal/service"
	"draw-guess-be/internal/sessionlog"
	"draw-guess-be/internal/state"
	"draw-guess-be/internal/words"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)
	defer logger.Sync()

	// 词库
	wordList := words.DefaultWords
	if cfg.Game.WordListFile != "" {
		list, err := words.LoadFile(cfg.Game.WordListFile)
		if err != nil {
			zap.L().Fatal("加载词库失败", zap.Error(err))
		}
		wordList = list
	}

	vocabulary, err := words.NewVocabulary(wordList, cfg.Game.AvoidRepeats)
	if err != nil {
		zap.L().Fatal("词库无效", zap.Error(err))
	}

	// 会话日志是可选的，写入失败不影响游戏
	var (
		history  sessionlog.Store
		recorder sessionlog.Recorder = sessionlog.Nop{}
	)

	store, err := sessionlog.Open(context.Background(), cfg.SessionLog)
	switch {
	case errors.Is(err, sessionlog.ErrDisabled):
		zap.L().Info("会话日志未开启")
	case err != nil:
		zap.L().Fatal("打开会话日志失败", zap.Error(err))
	default:
		writer := sessionlog.NewWriter(store, cfg.SessionLog.Buffer)
		defer writer.Close()

		history = store
		recorder = writer
	}

	roomSvc := service.NewRoomService(cfg.Game, vocabulary, recorder)

	iris.RegisterOnInterrupt(roomSvc.Close)

	// 组装应用状态
	appState := state.NewAppState(cfg, roomSvc, history)

	zap.L().Info(
		"服务启动",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("words", vocabulary.Len()),
		zap.String("session_log", cfg.SessionLog.Driver),
	)

	// 启动服务器
	if err := http.RunServer(appState); err != nil {
		zap.L().Error("服务器异常退出", zap.Error(err))
	}

	roomSvc.Close()
}
