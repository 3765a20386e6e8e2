package main

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	src "game-crash-bet/server"
	"game-crash-bet/server/config"
	db2 "game-crash-bet/server/db"
	"game-crash-bet/server/service"
)

func main() {

	app := fx.New(
		fx.Provide(
			http.NewServeMux,
			config.NewConfiguration,
			db2.NewGameDB,
			db2.NewUserDB,
			db2.NewBetRecordDB,
			db2.NewRoundDB,
			db2.NewTransferDB,
			config.NewRedisClient,
			config.NewArgon2Password,
			config.NewLogger,
			config.NewWebSocket,
			config.NewClock,
			service.NewUserService,
			config.NewServerConfig),
		fx.Invoke(src.NewHTTPServer, src.NewServeMux, src.StartGameEngine),

		fx.WithLogger(
			func(logger *zap.Logger) fxevent.Logger {
				return &fxevent.ZapLogger{Logger: logger}
			},
		),
	)

	// 启动应用程序
	if err := app.Start(context.Background()); err != nil {
		panic(err)
	}

	// 等待应用程序关闭
	<-app.Done()
}
