package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"game-crash-bet/server/constant"
)

// Participation 单个玩家本局的下注记录,按连接token索引
// CashedOutAt设值后不可变,保证同一笔下注至多入账一次
type Participation struct {
	UserId      int64    `json:"userId"`
	BetAmount   int64    `json:"betAmount"`   // 下注金额(分)
	CashedOutAt *float64 `json:"cashedOutAt"` // 提现倍数,nil表示未提现
}

// Round 单局状态,仅Engine持有与修改,每局重建
type Round struct {
	Id                string
	State             int
	CurrentMultiplier float64
	CrashPoint        float64 // 崩盘前不得下发给客户端
	StartedAt         time.Time
	PhaseDeadline     time.Time
	Players           map[string]*Participation

	pending map[string]bool // 扣款进行中的连接,防止并发重复下注
}

// RoundView 对外只读快照,不含崩盘点
type RoundView struct {
	Id                string
	State             int
	CurrentMultiplier float64
}

func NewRound() *Round {
	return &Round{
		Id:                strings.ReplaceAll(uuid.New().String(), "-", ""),
		State:             constant.GAME_BETTING,
		CurrentMultiplier: 1.00,
		Players:           make(map[string]*Participation, 0),
		pending:           make(map[string]bool, 0),
	}
}
