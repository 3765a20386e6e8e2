package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"game-crash-bet/server/db"
)

const historyRedisKey = "crash:history"

// History 最近N局崩盘倍数,最新在前
// 内存为权威副本;redis镜像用于重启恢复,gorm落库用于流水查询
// 任何外部写失败只记日志,绝不阻塞下一局
type History struct {
	Mutex sync.Mutex
	Items []float64
	Bound int

	RedisClient *redis.Client
	RoundDB     *db.RoundDB
	Logger      *zap.Logger
}

func NewHistory(bound int, redisClient *redis.Client, roundDB *db.RoundDB, logger *zap.Logger) *History {
	history := &History{
		Items:       make([]float64, 0, bound),
		Bound:       bound,
		RedisClient: redisClient,
		RoundDB:     roundDB,
		Logger:      logger,
	}
	history.warm()
	return history
}

// warm 重启后从redis恢复,redis为空再回退gorm
func (h *History) warm() {
	if h.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		values, err := h.RedisClient.LRange(ctx, historyRedisKey, 0, int64(h.Bound-1)).Result()
		if err == nil && len(values) > 0 {
			for index := range values {
				multiplier, errs := strconv.ParseFloat(values[index], 64)
				if errs != nil {
					continue
				}
				h.Items = append(h.Items, multiplier)
			}
			return
		}
		if err != nil {
			h.Logger.Warn("history warm from redis error", zap.Error(err))
		}
	}

	if h.RoundDB != nil {
		multipliers, err := h.RoundDB.LatestMultipliers(h.Bound)
		if err != nil {
			h.Logger.Warn("history warm from db error", zap.Error(err))
			return
		}
		h.Items = append(h.Items, multipliers...)
	}
}

// Push 头部插入并裁剪到上限,镜像写异步执行
func (h *History) Push(roundId string, multiplier float64) {
	h.Mutex.Lock()
	h.Items = append([]float64{multiplier}, h.Items...)
	if len(h.Items) > h.Bound {
		h.Items = h.Items[:h.Bound]
	}
	h.Mutex.Unlock()

	go h.persist(roundId, multiplier)
}

// Snapshot 只读副本
func (h *History) Snapshot() []float64 {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	snapshot := make([]float64, len(h.Items))
	copy(snapshot, h.Items)
	return snapshot
}

func (h *History) persist(roundId string, multiplier float64) {
	if h.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		pipe := h.RedisClient.Pipeline()
		pipe.LPush(ctx, historyRedisKey, multiplier)
		pipe.LTrim(ctx, historyRedisKey, 0, int64(h.Bound-1))
		if _, err := pipe.Exec(ctx); err != nil {
			h.Logger.Warn("history redis persist error", zap.Error(err))
		}
	}

	if h.RoundDB != nil {
		if _, err := h.RoundDB.CreateRound(db.Round{ID: roundId, Multiplier: multiplier}); err != nil {
			h.Logger.Warn("history db persist error", zap.Error(err))
		}
	}
}
