package constant

import "errors"

var (
	// 对玩家的下注/提现拒绝原因(消息原样下发给客户端)
	NotAuthenticatedError    = errors.New("Not authenticated.")
	BetPhaseClosedError      = errors.New("Betting phase is over.")
	InvalidBetAmountError    = errors.New("Invalid bet amount.")
	AlreadyBetError          = errors.New("You already placed a bet this round.")
	InsufficientBalanceError = errors.New("Insufficient balance.")
	BetStoreError            = errors.New("Failed to place bet (server error).")
	CashoutStoreError        = errors.New("Failed to cash out (server error).")

	AccountBlockedError = errors.New("Your account is blocked.")

	InvalidTransactionIdError = errors.New("Invalid Transaction ID format.")
	InvalidWithdrawalError    = errors.New("Invalid amount (below minimum withdrawal).")
	InvalidUpiError           = errors.New("Invalid UPI ID format.")

	// RoundEndedError 结束tick循环(内部使用,不下发)
	RoundEndedError = errors.New("round ended")

	UserNotExistError = errors.New("用户不存在")
)
