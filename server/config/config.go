package config

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/coder/quartz"
	"github.com/go-crypt/crypt/algorithm"
	"github.com/go-crypt/crypt/algorithm/argon2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"game-crash-bet/server/db"
	"game-crash-bet/server/service"
)

type ServerConfig struct {
	Config      Configuration
	Hash        algorithm.Hash
	Engine      *service.Engine
	Registry    *service.Registry
	WebSocket   websocket.Upgrader
	RedisClient *redis.Client
	UserService *service.UserService
	Logger      *zap.Logger
}

func NewConfiguration() Configuration {

	// Get the current working directory
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	// 定义命令行参数
	var configDir string
	flag.StringVar(&configDir, "config", dir, "config yml dir")

	// 解析命令行参数
	flag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(path.Join(configDir, "configuration.yml"))

	//读取配置文件
	if errs := viper.ReadInConfig(); errs != nil {
		panic(errs)
	}

	//将配置文件读到结构体中
	var config Configuration
	if err = viper.Unmarshal(&config); err != nil {
		panic(err)
	}

	return config
}

func NewServerConfig(config Configuration, webSocket websocket.Upgrader, hasher *argon2.Hasher, redisClient *redis.Client,
	userService *service.UserService, roundDB *db.RoundDB, clock quartz.Clock, logger *zap.Logger) *ServerConfig {

	registry := service.NewRegistry(logger)
	history := service.NewHistory(config.Game.HistorySize, redisClient, roundDB, logger)

	options := service.EngineOptions{
		BettingDuration:   time.Duration(config.Game.BettingDuration) * time.Millisecond,
		PreparingDuration: time.Duration(config.Game.PreparingDuration) * time.Millisecond,
		CrashedDuration:   time.Duration(config.Game.CrashedDuration) * time.Millisecond,
		TickInterval:      time.Duration(config.Game.TickInterval) * time.Millisecond,
	}
	engine := service.NewEngine(options, clock, registry, userService, history, logger)

	return &ServerConfig{
		Config:      config,
		Hash:        hasher,
		Engine:      engine,
		Registry:    registry,
		WebSocket:   webSocket,
		RedisClient: redisClient,
		UserService: userService,
		Logger:      logger,
	}
}

func NewArgon2Password(config Configuration) *argon2.Hasher {
	hash, err := argon2.New(
		argon2.WithVariantName(config.Argon2.Variant),
		argon2.WithT(config.Argon2.Iterations),
		argon2.WithM(uint32(config.Argon2.Memory)),
		argon2.WithP(config.Argon2.Parallelism),
		argon2.WithK(config.Argon2.KeyLength),
		argon2.WithS(config.Argon2.SaltLength),
	)

	if err != nil {
		panic(err)
	}
	return hash
}

func NewRedisClient(config Configuration) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
		Password: config.Redis.Password,
		DB:       config.Redis.DatabaseIndex,
	})
}

func NewWebSocket() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// allow connections from any origin, cors is handled on the http side
			return true
		},
	}
}

// NewClock real clock for production, tests inject quartz.NewMock
func NewClock() quartz.Clock {
	return quartz.NewReal()
}

func NewLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
