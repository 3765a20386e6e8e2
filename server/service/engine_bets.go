package service

import (
	"math"

	"go.uber.org/zap"

	"game-crash-bet/server/constant"
)

// CashOutResult 提现确认内容,金额为分
type CashOutResult struct {
	Multiplier float64
	BetAmount  int64
	Winnings   int64
	NewBalance int64
}

// PlaceBet 下注:校验->预占名额->扣款确认->登记参与->返回最新余额
// 扣款调用不持有引擎锁,账户存储慢或失败不会阻塞游戏时间线
// 任一前置条件不满足返回具体原因,且不产生任何状态变更
func (e *Engine) PlaceBet(token string, userId int64, amount int64) (int64, error) {
	if userId <= 0 {
		return 0, constant.NotAuthenticatedError
	}
	if amount <= 0 {
		return 0, constant.InvalidBetAmountError
	}

	e.Mutex.Lock()
	round := e.Round
	if round == nil || round.State != constant.GAME_BETTING {
		e.Mutex.Unlock()
		return 0, constant.BetPhaseClosedError
	}
	if _, ok := round.Players[token]; ok || round.pending[token] {
		e.Mutex.Unlock()
		return 0, constant.AlreadyBetError
	}

	// 预占名额:扣款期间同一连接不能再下注
	round.pending[token] = true
	roundId := round.Id
	e.Mutex.Unlock()

	newBalance, err := e.Accounts.DebitBet(userId, roundId, amount)

	e.Mutex.Lock()
	round = e.Round
	sameRound := round != nil && round.Id == roundId
	if sameRound {
		delete(round.pending, token)
	}
	if err != nil {
		e.Mutex.Unlock()
		return 0, err
	}
	if !sameRound {
		// 扣款确认前本局已重置,退还下注金额
		e.Mutex.Unlock()
		if _, errs := e.Accounts.RefundBet(userId, roundId, amount); errs != nil {
			e.Logger.Error("bet refund error", zap.Int64("userId", userId), zap.Error(errs))
		}
		return 0, constant.BetPhaseClosedError
	}

	round.Players[token] = &Participation{UserId: userId, BetAmount: amount}
	e.Mutex.Unlock()

	e.Logger.Info("bet placed", zap.Int64("userId", userId), zap.Int64("amount", amount), zap.String("roundId", roundId))
	return newBalance, nil
}

// CashOut 提现:锁定当前倍数后入账
// 提现倍数取处理时刻引擎最近一次计算值,客户端无法指定
// 与崩盘tick争用同一把锁:先串行者生效,崩盘后到达的提现静默忽略
// 返回(nil, nil)表示静默忽略
func (e *Engine) CashOut(token string) (*CashOutResult, error) {
	e.Mutex.Lock()
	round := e.Round
	if round == nil || round.State != constant.GAME_RUNNING {
		e.Mutex.Unlock()
		return nil, nil
	}

	player := round.Players[token]
	if player == nil || player.CashedOutAt != nil {
		// 未下注或已提现:同一笔下注至多入账一次
		e.Mutex.Unlock()
		return nil, nil
	}

	multiplier := round.CurrentMultiplier
	player.CashedOutAt = &multiplier
	winnings := int64(math.Round(float64(player.BetAmount) * multiplier))
	roundId := round.Id
	userId := player.UserId
	betAmount := player.BetAmount
	e.Mutex.Unlock()

	newBalance, err := e.Accounts.CreditCashout(userId, roundId, winnings, multiplier)
	if err != nil {
		// 入账未确认:回滚提现标记,本次提现视为未发生
		e.Mutex.Lock()
		if e.Round != nil && e.Round.Id == roundId {
			if current := e.Round.Players[token]; current != nil && current.CashedOutAt == &multiplier {
				current.CashedOutAt = nil
			}
		}
		e.Mutex.Unlock()

		e.Logger.Error("cashout credit error", zap.Int64("userId", userId), zap.Error(err))
		return nil, constant.CashoutStoreError
	}

	e.Logger.Info("player cashed out",
		zap.Int64("userId", userId),
		zap.Float64("multiplier", multiplier),
		zap.Int64("winnings", winnings))

	return &CashOutResult{
		Multiplier: multiplier,
		BetAmount:  betAmount,
		Winnings:   winnings,
		NewBalance: newBalance,
	}, nil
}
