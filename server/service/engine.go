package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"game-crash-bet/server/constant"
)

// Sender 游戏事件下发接口,由Registry实现
type Sender interface {
	Broadcast(msg []byte)
	SendToken(token string, msg []byte)
}

// AccountStore 核心所需的外部账户操作,金额以分为单位
// 实现方保证每次调用为原子点更新
type AccountStore interface {
	DebitBet(userId int64, roundId string, amount int64) (int64, error)
	CreditCashout(userId int64, roundId string, amount int64, multiplier float64) (int64, error)
	RefundBet(userId int64, roundId string, amount int64) (int64, error)
}

// EngineOptions 各阶段时长配置
type EngineOptions struct {
	BettingDuration   time.Duration
	PreparingDuration time.Duration
	CrashedDuration   time.Duration
	TickInterval      time.Duration
}

// Engine 全局唯一一局游戏的状态机
// 所有对Round的读写都必须持有Mutex;tick与提现在同一把锁上串行,
// 崩盘与提现的竞争以串行化顺序为准
type Engine struct {
	Mutex sync.Mutex
	Round *Round

	History  *History
	Sender   Sender
	Accounts AccountStore
	Clock    quartz.Clock
	Logger   *zap.Logger

	options EngineOptions

	phaseTimer *quartz.Timer
	tickCancel context.CancelFunc

	randFloat func() float64
}

func NewEngine(options EngineOptions, clock quartz.Clock, sender Sender, accounts AccountStore, history *History, logger *zap.Logger) *Engine {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		History:   history,
		Sender:    sender,
		Accounts:  accounts,
		Clock:     clock,
		Logger:    logger,
		options:   options,
		randFloat: rnd.Float64,
	}
}

// Start 启动游戏循环,从下注阶段开始,循环永不终止
func (e *Engine) Start() {
	e.Logger.Info("crash game engine starting")
	e.setBettingState()
}

// Stop 停止计时器,回到IDLE(仅用于进程退出)
func (e *Engine) Stop() {
	e.Mutex.Lock()
	defer e.Mutex.Unlock()

	e.stopTimersLocked()
	e.Round = nil
}

// stopTimersLocked 进入新阶段前取消遗留的定时器/tick,避免重复触发
func (e *Engine) stopTimersLocked() {
	if e.phaseTimer != nil {
		e.phaseTimer.Stop()
		e.phaseTimer = nil
	}
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
}

// setBettingState 重置新一局:清空参与记录与崩盘点,倍数回到1.00
func (e *Engine) setBettingState() {
	e.Mutex.Lock()
	e.stopTimersLocked()

	e.Round = NewRound()
	e.Round.PhaseDeadline = e.Clock.Now().Add(e.options.BettingDuration)
	e.phaseTimer = e.Clock.AfterFunc(e.options.BettingDuration, e.setPreparingState)
	roundId := e.Round.Id
	e.Mutex.Unlock()

	e.Logger.Info("betting phase starting", zap.String("roundId", roundId))

	stateMsg := GameStateMessage{State: constant.GAME_BETTING, Duration: e.options.BettingDuration.Milliseconds()}
	e.Sender.Broadcast(stateMsg.ToJsonStr(constant.EVENT_GAME_STATE))
}

// setPreparingState 开出崩盘点(仅记服务端日志,不下发),锁定已有下注
func (e *Engine) setPreparingState() {
	e.Mutex.Lock()
	if e.Round == nil || e.Round.State != constant.GAME_BETTING {
		e.Mutex.Unlock()
		return
	}
	e.stopTimersLocked()

	e.Round.State = constant.GAME_PREPARING
	e.Round.CrashPoint = GenerateCrashPoint(e.randFloat)
	e.Round.PhaseDeadline = e.Clock.Now().Add(e.options.PreparingDuration)
	e.phaseTimer = e.Clock.AfterFunc(e.options.PreparingDuration, e.setRunningState)
	crashPoint := e.Round.CrashPoint
	e.Mutex.Unlock()

	e.Logger.Info("preparing phase starting", zap.Float64("crashPoint", crashPoint))

	stateMsg := GameStateMessage{State: constant.GAME_PREPARING, Duration: e.options.PreparingDuration.Milliseconds()}
	e.Sender.Broadcast(stateMsg.ToJsonStr(constant.EVENT_GAME_STATE))
}

// setRunningState 记录起飞时刻,启动固定间隔tick
func (e *Engine) setRunningState() {
	e.Mutex.Lock()
	if e.Round == nil || e.Round.State != constant.GAME_PREPARING {
		e.Mutex.Unlock()
		return
	}
	e.stopTimersLocked()

	e.Round.State = constant.GAME_RUNNING
	e.Round.CurrentMultiplier = 1.00
	e.Round.StartedAt = e.Clock.Now()
	e.Round.PhaseDeadline = time.Time{}

	ctx, cancel := context.WithCancel(context.Background())
	e.tickCancel = cancel
	e.Clock.TickerFunc(ctx, e.options.TickInterval, e.gameTick, "gameTick")
	e.Mutex.Unlock()

	e.Logger.Info("running phase starting")

	stateMsg := GameStateMessage{State: constant.GAME_RUNNING, Multiplier: 1.00}
	e.Sender.Broadcast(stateMsg.ToJsonStr(constant.EVENT_GAME_STATE))
}

// gameTick 重新计算倍数;到达崩盘点时本次tick内原子完成:
// 倍数钳制到崩盘点、阶段切到ENDED、广播崩盘、历史记录头插并广播
// 返回非nil错误即停止ticker;下一阶段由独立的phaseTimer保证推进
func (e *Engine) gameTick() error {
	e.Mutex.Lock()
	if e.Round == nil || e.Round.State != constant.GAME_RUNNING {
		e.Mutex.Unlock()
		return constant.RoundEndedError
	}

	elapsed := e.Clock.Since(e.Round.StartedAt)
	e.Round.CurrentMultiplier = Multiplier(elapsed)

	if e.Round.CurrentMultiplier < e.Round.CrashPoint {
		multiplier := e.Round.CurrentMultiplier
		e.Mutex.Unlock()

		multiplierMsg := MultiplierMessage{Multiplier: multiplier}
		e.Sender.Broadcast(multiplierMsg.ToJsonStr(constant.EVENT_MULTIPLIER))
		return nil
	}

	// 崩盘
	e.Round.CurrentMultiplier = e.Round.CrashPoint
	e.Round.State = constant.GAME_ENDED
	e.Round.PhaseDeadline = e.Clock.Now().Add(e.options.CrashedDuration)
	crashPoint := e.Round.CrashPoint
	roundId := e.Round.Id

	if e.phaseTimer != nil {
		e.phaseTimer.Stop()
	}
	e.phaseTimer = e.Clock.AfterFunc(e.options.CrashedDuration, e.setBettingState)
	e.History.Push(roundId, crashPoint)
	historySnapshot := e.History.Snapshot()
	e.Mutex.Unlock()

	e.Logger.Info("round crashed", zap.String("roundId", roundId), zap.Float64("multiplier", crashPoint))

	crashMsg := MultiplierMessage{Multiplier: crashPoint}
	e.Sender.Broadcast(crashMsg.ToJsonStr(constant.EVENT_CRASH))

	historyMsg := HistoryMessage{History: historySnapshot}
	e.Sender.Broadcast(historyMsg.ToJsonStr(constant.EVENT_HISTORY))
	return constant.RoundEndedError
}

// SendWelcome 新连接立即补发当前阶段与历史快照,中途加入无需等待下一次广播
// 计时阶段下发剩余时长,飞行阶段下发当前倍数
func (e *Engine) SendWelcome(token string) {
	e.Mutex.Lock()
	var view RoundView
	var remaining time.Duration
	if e.Round != nil {
		copier.Copy(&view, e.Round)
		if view.State == constant.GAME_BETTING || view.State == constant.GAME_PREPARING {
			remaining = e.Clock.Until(e.Round.PhaseDeadline)
		}
	}
	e.Mutex.Unlock()

	stateMsg := GameStateMessage{State: view.State}
	switch view.State {
	case constant.GAME_BETTING, constant.GAME_PREPARING:
		stateMsg.Duration = remaining.Milliseconds()
	case constant.GAME_RUNNING, constant.GAME_ENDED:
		stateMsg.Multiplier = view.CurrentMultiplier
	}
	e.Sender.SendToken(token, stateMsg.ToJsonStr(constant.EVENT_GAME_STATE))

	historyMsg := HistoryMessage{History: e.History.Snapshot()}
	e.Sender.SendToken(token, historyMsg.ToJsonStr(constant.EVENT_HISTORY))
}

// Forget 连接断开:局状态不受影响,仅移除该连接的参与记录
func (e *Engine) Forget(token string) {
	e.Mutex.Lock()
	defer e.Mutex.Unlock()

	if e.Round == nil {
		return
	}
	delete(e.Round.Players, token)
	delete(e.Round.pending, token)
}
