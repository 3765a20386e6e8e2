package src

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"game-crash-bet/server/config"
	"game-crash-bet/server/constant"
	"game-crash-bet/server/response"
	"game-crash-bet/server/service"
	"game-crash-bet/server/utils"
)

// StartGameEngine 随应用生命周期启动/停止游戏循环
func StartGameEngine(lifecycle fx.Lifecycle, c *config.ServerConfig) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Engine.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.Engine.Stop()
			return nil
		},
	})
}

func handlerSocketConnection(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	// 完成和Client HTTP >>> WebSocket的协议升级
	conn, err := c.WebSocket.Upgrade(w, r, nil)
	if err != nil {
		c.Logger.Warn("upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	token := conn.RemoteAddr().String()

	// 注册连接并立即补发当前局面+历史,支持中途加入
	c.Registry.ConnOnline(token, conn)
	c.Engine.SendWelcome(token)

	for {
		// Receive client message
		_, msg, errs := conn.ReadMessage()
		if errs != nil {
			// Client connection close
			c.Registry.ConnOffline(token)
			c.Engine.Forget(token)
			break
		}

		if msg == nil || len(msg) <= 0 {
			continue
		}

		var receiveMsg service.ReceiveMsg
		if errors := json.Unmarshal(msg, &receiveMsg); errors != nil {
			c.Logger.Warn("receive message parse json error", zap.Error(errors))
			continue
		}

		switch receiveMsg.Type {
		case constant.CRASH_AUTH:
			// 0、连接认证
			if disconnect := handlerAuthenticate(c, token, receiveMsg); disconnect {
				c.Registry.ConnOffline(token)
				c.Engine.Forget(token)
				return
			}
		case constant.CRASH_BET:
			// 1、下注
			handlerPlaceBet(c, token, receiveMsg)
		case constant.CRASH_CASHOUT:
			// 2、提现离场
			handlerCashOut(c, token)
		case constant.CRASH_DEPOSIT:
			// 3、充值申请
			handlerDepositRequest(c, token, receiveMsg)
		case constant.CRASH_WITHDRAW:
			// 4、提款申请
			handlerWithdrawalRequest(c, token, receiveMsg)
		default:
			errMessage := service.ErrorMessage{ErrorMsg: "unknown message type"}
			c.Registry.SendToken(token, errMessage.ToJsonStr(constant.EVENT_ERROR))
		}
	}
}

// handlerAuthenticate 身份认证:未知账号或封禁账号先通知后强制断开
// 返回true表示需要断开当前连接
func handlerAuthenticate(c *config.ServerConfig, token string, receiveMsg service.ReceiveMsg) bool {

	forceDisconnectFunc := func(reason string) bool {
		notice := service.ErrorMessage{ErrorMsg: reason}
		c.Registry.SendToken(token, notice.ToJsonStr(constant.EVENT_FORCE_DISCONNECT))
		time.Sleep(time.Second)
		return true
	}

	claims, err := utils.ParseJWT(receiveMsg.Token)
	if err != nil {
		return forceDisconnectFunc(constant.UserNotLogin)
	}

	user, err := c.UserService.GetAccount(claims.UserId)
	if err != nil {
		return forceDisconnectFunc(constant.UserNotExist)
	}

	if user.Status == constant.UserStatusBlocked {
		return forceDisconnectFunc(constant.AccountBlockedError.Error())
	}

	c.Registry.Authenticate(token, user.ID, user.Username)

	// 认证成功:推送当前余额到该账号全部连接
	balanceMsg := service.BalanceMessage{NewBalance: utils.CentsToAmount(user.Balance)}
	c.Registry.SendUserId(user.ID, balanceMsg.ToJsonStr(constant.EVENT_BALANCE))
	return false
}

// handlerPlaceBet 下注:先扣款确认,再登记参与,最后定向回执+余额
func handlerPlaceBet(c *config.ServerConfig, token string, receiveMsg service.ReceiveMsg) {
	userId, _ := c.Registry.AuthenticatedUser(token)
	amount := utils.AmountToCents(receiveMsg.Amount)

	newBalance, err := c.Engine.PlaceBet(token, userId, amount)
	if err != nil {
		errMessage := service.ErrorMessage{ErrorMsg: err.Error()}
		c.Registry.SendToken(token, errMessage.ToJsonStr(constant.EVENT_BET_ERROR))
		return
	}

	betMsg := service.BetMessage{Amount: utils.CentsToAmount(amount)}
	c.Registry.SendToken(token, betMsg.ToJsonStr(constant.EVENT_BET_SUCCESS))

	// 余额变更同步到该账号全部连接
	balanceMsg := service.BalanceMessage{NewBalance: utils.CentsToAmount(newBalance)}
	c.Registry.SendUserId(userId, balanceMsg.ToJsonStr(constant.EVENT_BALANCE))
}

// handlerCashOut 提现:前置条件不满足时静默忽略
func handlerCashOut(c *config.ServerConfig, token string) {
	userId, ok := c.Registry.AuthenticatedUser(token)
	if !ok {
		return
	}

	result, err := c.Engine.CashOut(token)
	if err != nil {
		errMessage := service.ErrorMessage{ErrorMsg: err.Error()}
		c.Registry.SendToken(token, errMessage.ToJsonStr(constant.EVENT_ERROR))
		return
	}
	if result == nil {
		return
	}

	cashOutMsg := service.CashOutMessage{
		Multiplier: result.Multiplier,
		Amount:     utils.CentsToAmount(result.BetAmount),
	}
	c.Registry.SendToken(token, cashOutMsg.ToJsonStr(constant.EVENT_CASHOUT_SUCCESS))

	balanceMsg := service.BalanceMessage{NewBalance: utils.CentsToAmount(result.NewBalance)}
	c.Registry.SendUserId(userId, balanceMsg.ToJsonStr(constant.EVENT_BALANCE))
}

// handlerDepositRequest 充值申请入库等待人工核验
func handlerDepositRequest(c *config.ServerConfig, token string, receiveMsg service.ReceiveMsg) {
	resultFunc := func(success bool, pending bool, message string) {
		resultMsg := service.TransferResultMessage{Success: success, Pending: pending, Msg: message}
		c.Registry.SendToken(token, resultMsg.ToJsonStr(constant.EVENT_DEPOSIT_RESULT))
	}

	userId, ok := c.Registry.AuthenticatedUser(token)
	if !ok {
		resultFunc(false, false, "Authentication error.")
		return
	}

	if err := c.UserService.SubmitDeposit(userId, receiveMsg.TransactionId); err != nil {
		resultFunc(false, false, err.Error())
		return
	}
	resultFunc(false, true, "Deposit submitted for manual review. Balance updated after verification.")
}

// handlerWithdrawalRequest 提款申请:校验余额后入库,扣款由人工处理
func handlerWithdrawalRequest(c *config.ServerConfig, token string, receiveMsg service.ReceiveMsg) {
	resultFunc := func(success bool, pending bool, message string) {
		resultMsg := service.TransferResultMessage{Success: success, Pending: pending, Msg: message}
		c.Registry.SendToken(token, resultMsg.ToJsonStr(constant.EVENT_WITHDRAW_RESULT))
	}

	userId, ok := c.Registry.AuthenticatedUser(token)
	if !ok {
		resultFunc(false, false, "Authentication error.")
		return
	}

	amount := utils.AmountToCents(receiveMsg.Amount)
	if err := c.UserService.SubmitWithdrawal(userId, amount, receiveMsg.UpiId, c.Config.User.MinWithdrawal); err != nil {
		resultFunc(false, false, err.Error())
		return
	}
	resultFunc(false, true, "Withdrawal request submitted for manual processing.")
}

// handlerGameHistory 最近崩盘倍数列表,最新在前
func handlerGameHistory(c *config.ServerConfig, w http.ResponseWriter, r *http.Request) {
	response.SuccessWithData(c.Engine.History.Snapshot(), w)
}
