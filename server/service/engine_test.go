package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"game-crash-bet/server/constant"
)

// fakeSender 记录所有广播与定向消息
type fakeSender struct {
	mux        sync.Mutex
	broadcasts [][]byte
	direct     map[string][][]byte
}

func newFakeSender() *fakeSender {
	return &fakeSender{direct: make(map[string][][]byte)}
}

func (f *fakeSender) Broadcast(msg []byte) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

func (f *fakeSender) SendToken(token string, msg []byte) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.direct[token] = append(f.direct[token], msg)
}

type sentEvent struct {
	MsgType    int       `json:"msgType"`
	State      int       `json:"state"`
	Duration   int64     `json:"duration"`
	Multiplier float64   `json:"multiplier"`
	History    []float64 `json:"history"`
}

// lastBroadcast 返回最近一条指定类型的广播,没有则返回nil
func (f *fakeSender) lastBroadcast(t *testing.T, msgType int) *sentEvent {
	t.Helper()
	f.mux.Lock()
	defer f.mux.Unlock()

	for i := len(f.broadcasts) - 1; i >= 0; i-- {
		var event sentEvent
		require.NoError(t, json.Unmarshal(f.broadcasts[i], &event))
		if event.MsgType == msgType {
			return &event
		}
	}
	return nil
}

func (f *fakeSender) lastDirect(t *testing.T, token string, msgType int) *sentEvent {
	t.Helper()
	f.mux.Lock()
	defer f.mux.Unlock()

	messages := f.direct[token]
	for i := len(messages) - 1; i >= 0; i-- {
		var event sentEvent
		require.NoError(t, json.Unmarshal(messages[i], &event))
		if event.MsgType == msgType {
			return &event
		}
	}
	return nil
}

// fakeAccounts 内存账户,金额为分
type fakeAccounts struct {
	mux      sync.Mutex
	balances map[int64]int64

	debits  int
	credits int
	refunds int

	creditErr error
	debitHook func()
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{balances: make(map[int64]int64)}
}

func (f *fakeAccounts) DebitBet(userId int64, roundId string, amount int64) (int64, error) {
	if f.debitHook != nil {
		f.debitHook()
	}

	f.mux.Lock()
	defer f.mux.Unlock()

	if f.balances[userId] < amount {
		return 0, constant.InsufficientBalanceError
	}
	f.balances[userId] -= amount
	f.debits++
	return f.balances[userId], nil
}

func (f *fakeAccounts) CreditCashout(userId int64, roundId string, amount int64, multiplier float64) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.creditErr != nil {
		return 0, f.creditErr
	}
	f.balances[userId] += amount
	f.credits++
	return f.balances[userId], nil
}

func (f *fakeAccounts) RefundBet(userId int64, roundId string, amount int64) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.balances[userId] += amount
	f.refunds++
	return f.balances[userId], nil
}

func newTestEngine(t *testing.T) (*Engine, *quartz.Mock, *fakeSender, *fakeAccounts) {
	t.Helper()

	mockClock := quartz.NewMock(t)
	sender := newFakeSender()
	accounts := newFakeAccounts()
	history := NewHistory(20, nil, nil, zap.NewNop())

	options := EngineOptions{
		BettingDuration:   7 * time.Second,
		PreparingDuration: 3 * time.Second,
		CrashedDuration:   4 * time.Second,
		TickInterval:      100 * time.Millisecond,
	}
	engine := NewEngine(options, mockClock, sender, accounts, history, zap.NewNop())
	return engine, mockClock, sender, accounts
}

// fixCrashPoint 固定下一局崩盘点的抽样序列
func fixCrashPoint(engine *Engine, draws ...float64) {
	engine.randFloat = func() float64 {
		value := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return value
	}
}

func (e *Engine) stateForTest() int {
	e.Mutex.Lock()
	defer e.Mutex.Unlock()
	if e.Round == nil {
		return constant.GAME_IDLE
	}
	return e.Round.State
}

func advance(t *testing.T, mockClock *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(d).MustWait(ctx)
}

// advanceToRunning 走完下注与准备阶段
func advanceToRunning(t *testing.T, engine *Engine, mockClock *quartz.Mock) {
	t.Helper()
	advance(t, mockClock, engine.options.BettingDuration)
	require.Equal(t, constant.GAME_PREPARING, engine.stateForTest())
	advance(t, mockClock, engine.options.PreparingDuration)
	require.Equal(t, constant.GAME_RUNNING, engine.stateForTest())
}

// advanceToCrash 逐tick推进直到崩盘
func advanceToCrash(t *testing.T, engine *Engine, mockClock *quartz.Mock) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		advance(t, mockClock, engine.options.TickInterval)
		if engine.stateForTest() == constant.GAME_ENDED {
			return
		}
	}
	t.Fatal("round never crashed")
}

func TestEnginePhaseCycle(t *testing.T) {
	engine, mockClock, sender, _ := newTestEngine(t)
	fixCrashPoint(engine, 0.1, 0.5) // 1.01 + 0.5*0.98 = 1.50
	defer engine.Stop()

	engine.Start()
	require.Equal(t, constant.GAME_BETTING, engine.stateForTest())

	state := sender.lastBroadcast(t, constant.EVENT_GAME_STATE)
	require.NotNil(t, state)
	assert.Equal(t, constant.GAME_BETTING, state.State)
	assert.Equal(t, int64(7000), state.Duration)

	// 崩盘点在准备阶段开出,但绝不提前下发
	advance(t, mockClock, engine.options.BettingDuration)
	require.Equal(t, constant.GAME_PREPARING, engine.stateForTest())
	assert.Nil(t, sender.lastBroadcast(t, constant.EVENT_CRASH))

	advance(t, mockClock, engine.options.PreparingDuration)
	require.Equal(t, constant.GAME_RUNNING, engine.stateForTest())

	state = sender.lastBroadcast(t, constant.EVENT_GAME_STATE)
	require.NotNil(t, state)
	assert.Equal(t, constant.GAME_RUNNING, state.State)
	assert.Equal(t, 1.00, state.Multiplier)

	// 飞行1秒:曲线值 1.00 + 0.08*1^1.3 = 1.08
	for i := 0; i < 10; i++ {
		advance(t, mockClock, engine.options.TickInterval)
	}
	tick := sender.lastBroadcast(t, constant.EVENT_MULTIPLIER)
	require.NotNil(t, tick)
	assert.Equal(t, 1.08, tick.Multiplier)

	advanceToCrash(t, engine, mockClock)

	crash := sender.lastBroadcast(t, constant.EVENT_CRASH)
	require.NotNil(t, crash)
	assert.Equal(t, 1.50, crash.Multiplier)

	history := sender.lastBroadcast(t, constant.EVENT_HISTORY)
	require.NotNil(t, history)
	assert.Equal(t, []float64{1.50}, history.History)

	// 冷却结束自动回到下一局下注阶段
	advance(t, mockClock, engine.options.CrashedDuration)
	require.Equal(t, constant.GAME_BETTING, engine.stateForTest())
}

func TestEnginePlaceBet(t *testing.T) {
	t.Run("debits balance and records participation", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		newBalance, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(900), newBalance)
		assert.Equal(t, 1, accounts.debits)

		engine.Mutex.Lock()
		player := engine.Round.Players["tok"]
		engine.Mutex.Unlock()
		require.NotNil(t, player)
		assert.Equal(t, int64(100), player.BetAmount)
		assert.Nil(t, player.CashedOutAt)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		_, err := engine.PlaceBet("tok", 0, 100)
		assert.ErrorIs(t, err, constant.NotAuthenticatedError)

		_, err = engine.PlaceBet("tok", 7, 0)
		assert.ErrorIs(t, err, constant.InvalidBetAmountError)

		_, err = engine.PlaceBet("tok", 7, -50)
		assert.ErrorIs(t, err, constant.InvalidBetAmountError)

		assert.Equal(t, 0, accounts.debits)
	})

	t.Run("one bet per round per connection", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		_, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)

		_, err = engine.PlaceBet("tok", 7, 100)
		assert.ErrorIs(t, err, constant.AlreadyBetError)
		assert.Equal(t, 1, accounts.debits)
		assert.Equal(t, int64(900), accounts.balances[7])
	})

	t.Run("insufficient balance leaves balance unchanged", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		accounts.balances[8] = 50
		_, err := engine.PlaceBet("tok", 8, 100)
		assert.ErrorIs(t, err, constant.InsufficientBalanceError)
		assert.Equal(t, int64(50), accounts.balances[8])

		// 失败的下注不占名额,补足余额后可重试
		accounts.balances[8] = 200
		_, err = engine.PlaceBet("tok", 8, 100)
		require.NoError(t, err)
	})

	t.Run("rejected outside betting phase", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		advance(t, mockClock, engine.options.BettingDuration)
		require.Equal(t, constant.GAME_PREPARING, engine.stateForTest())

		_, err := engine.PlaceBet("tok", 7, 100)
		assert.ErrorIs(t, err, constant.BetPhaseClosedError)
		assert.Equal(t, 0, accounts.debits)
	})

	t.Run("registers bet when debit lands after betting closed in same round", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		// 扣款确认时本局已进入准备阶段:同一局内下注仍然有效
		accounts.balances[7] = 1000
		accounts.debitHook = func() {
			accounts.debitHook = nil
			engine.setPreparingState()
		}

		newBalance, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(900), newBalance)
		assert.Equal(t, 0, accounts.refunds)

		engine.Mutex.Lock()
		player := engine.Round.Players["tok"]
		state := engine.Round.State
		engine.Mutex.Unlock()
		require.NotNil(t, player)
		assert.Equal(t, int64(100), player.BetAmount)
		assert.Equal(t, constant.GAME_PREPARING, state)
	})

	t.Run("refunds when round resets during debit", func(t *testing.T) {
		engine, _, _, accounts := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		accounts.debitHook = func() {
			accounts.debitHook = nil
			engine.setBettingState()
		}

		_, err := engine.PlaceBet("tok", 7, 100)
		assert.ErrorIs(t, err, constant.BetPhaseClosedError)
		assert.Equal(t, 1, accounts.refunds)
		assert.Equal(t, int64(1000), accounts.balances[7])

		engine.Mutex.Lock()
		_, participating := engine.Round.Players["tok"]
		engine.Mutex.Unlock()
		assert.False(t, participating)
	})
}

func TestEngineCashOut(t *testing.T) {
	t.Run("pays bet times current multiplier", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5) // 1.50
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		_, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)

		advanceToRunning(t, engine, mockClock)
		for i := 0; i < 10; i++ {
			advance(t, mockClock, engine.options.TickInterval)
		}

		result, err := engine.CashOut("tok")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 1.08, result.Multiplier)
		assert.Equal(t, int64(100), result.BetAmount)
		assert.Equal(t, int64(108), result.Winnings)
		assert.Equal(t, int64(1008), result.NewBalance)
		assert.Equal(t, 1, accounts.credits)
	})

	t.Run("same bet never credits twice", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		_, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)

		advanceToRunning(t, engine, mockClock)
		advance(t, mockClock, engine.options.TickInterval)

		result, err := engine.CashOut("tok")
		require.NoError(t, err)
		require.NotNil(t, result)

		result, err = engine.CashOut("tok")
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 1, accounts.credits)
	})

	t.Run("silently ignored after crash", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		_, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)

		advanceToRunning(t, engine, mockClock)
		advanceToCrash(t, engine, mockClock)

		result, err := engine.CashOut("tok")
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 0, accounts.credits)
		assert.Equal(t, int64(900), accounts.balances[7])
	})

	t.Run("ignored without a bet", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		advanceToRunning(t, engine, mockClock)
		result, err := engine.CashOut("ghost")
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 0, accounts.credits)
	})

	t.Run("rolls back mark when credit fails", func(t *testing.T) {
		engine, mockClock, _, accounts := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		accounts.balances[7] = 1000
		_, err := engine.PlaceBet("tok", 7, 100)
		require.NoError(t, err)

		advanceToRunning(t, engine, mockClock)
		advance(t, mockClock, engine.options.TickInterval)

		accounts.creditErr = constant.CashoutStoreError
		result, err := engine.CashOut("tok")
		assert.ErrorIs(t, err, constant.CashoutStoreError)
		assert.Nil(t, result)

		// 入账未确认,提现标记必须回滚,重试仍可成功
		accounts.creditErr = nil
		result, err = engine.CashOut("tok")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 1, accounts.credits)
	})
}

func TestEngineRoundReset(t *testing.T) {
	engine, mockClock, _, accounts := newTestEngine(t)
	fixCrashPoint(engine, 0.1, 0.5)
	defer engine.Stop()
	engine.Start()

	accounts.balances[7] = 1000
	_, err := engine.PlaceBet("tok", 7, 100)
	require.NoError(t, err)

	engine.Mutex.Lock()
	firstRoundId := engine.Round.Id
	engine.Mutex.Unlock()

	advanceToRunning(t, engine, mockClock)
	advanceToCrash(t, engine, mockClock)
	advance(t, mockClock, engine.options.CrashedDuration)
	require.Equal(t, constant.GAME_BETTING, engine.stateForTest())

	engine.Mutex.Lock()
	newRoundId := engine.Round.Id
	playerCount := len(engine.Round.Players)
	engine.Mutex.Unlock()

	assert.NotEqual(t, firstRoundId, newRoundId)
	assert.Equal(t, 0, playerCount)

	// 上一局未提现的下注不入账,新一局可重新下注
	_, err = engine.PlaceBet("tok", 7, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, accounts.debits)
	assert.Equal(t, int64(800), accounts.balances[7])
}

func TestEngineSendWelcome(t *testing.T) {
	t.Run("betting phase reports remaining duration", func(t *testing.T) {
		engine, mockClock, sender, _ := newTestEngine(t)
		defer engine.Stop()
		engine.Start()

		advance(t, mockClock, 2*time.Second)
		engine.SendWelcome("late")

		state := sender.lastDirect(t, "late", constant.EVENT_GAME_STATE)
		require.NotNil(t, state)
		assert.Equal(t, constant.GAME_BETTING, state.State)
		assert.Equal(t, int64(5000), state.Duration)

		history := sender.lastDirect(t, "late", constant.EVENT_HISTORY)
		require.NotNil(t, history)
	})

	t.Run("running phase reports current multiplier", func(t *testing.T) {
		engine, mockClock, sender, _ := newTestEngine(t)
		fixCrashPoint(engine, 0.1, 0.5)
		defer engine.Stop()
		engine.Start()

		advanceToRunning(t, engine, mockClock)
		for i := 0; i < 10; i++ {
			advance(t, mockClock, engine.options.TickInterval)
		}

		engine.SendWelcome("late")
		state := sender.lastDirect(t, "late", constant.EVENT_GAME_STATE)
		require.NotNil(t, state)
		assert.Equal(t, constant.GAME_RUNNING, state.State)
		assert.Equal(t, 1.08, state.Multiplier)
	})
}

func TestEngineForget(t *testing.T) {
	engine, _, _, accounts := newTestEngine(t)
	defer engine.Stop()
	engine.Start()

	accounts.balances[7] = 1000
	_, err := engine.PlaceBet("tok", 7, 100)
	require.NoError(t, err)

	engine.Forget("tok")

	engine.Mutex.Lock()
	_, participating := engine.Round.Players["tok"]
	engine.Mutex.Unlock()
	assert.False(t, participating)
}

// 完整一局:下注50.00,2秒时提现,随后按抽定崩盘点崩盘并记入历史
func TestEngineScriptedRound(t *testing.T) {
	engine, mockClock, sender, accounts := newTestEngine(t)
	fixCrashPoint(engine, 0.6, 0.2) // 2 + 0.2*3 = 2.60
	defer engine.Stop()
	engine.Start()

	accounts.balances[7] = 10000
	newBalance, err := engine.PlaceBet("tok", 7, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), newBalance)

	advanceToRunning(t, engine, mockClock)
	for i := 0; i < 20; i++ {
		advance(t, mockClock, engine.options.TickInterval)
	}

	// 2秒:1.00 + 0.08*2^1.3 = 1.20
	result, err := engine.CashOut("tok")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1.20, result.Multiplier)
	assert.Equal(t, int64(6000), result.Winnings)
	assert.Equal(t, int64(11000), result.NewBalance)

	advanceToCrash(t, engine, mockClock)

	crash := sender.lastBroadcast(t, constant.EVENT_CRASH)
	require.NotNil(t, crash)
	assert.Equal(t, 2.60, crash.Multiplier)

	history := sender.lastBroadcast(t, constant.EVENT_HISTORY)
	require.NotNil(t, history)
	require.NotEmpty(t, history.History)
	assert.Equal(t, 2.60, history.History[0])
}
