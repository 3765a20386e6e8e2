package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"game-crash-bet/server/constant"
	"game-crash-bet/server/db"
)

// LoginBody represents the JSON body received by the endpoint.
type LoginBody struct {
	Username string `json:"username" valid:"required"`
	Password string `json:"password" valid:"required"`
}

type RegisterReq struct {
	Username string `json:"username" valid:"required"`
	Password string `json:"password" valid:"required"`
	Email    string `json:"email" valid:"required,email"`
}

type UserService struct {
	userDB     *db.UserDB
	recordDB   *db.BetRecordDB
	transferDB *db.TransferDB
	mux        sync.Mutex
}

func NewUserService(userDB *db.UserDB, recordDB *db.BetRecordDB, transferDB *db.TransferDB) *UserService {
	return &UserService{userDB: userDB, recordDB: recordDB, transferDB: transferDB}
}

func (u *UserService) Register(req RegisterReq, hashedPassword string, defaultBalance int64) (db.User, error) {
	u.mux.Lock()
	defer u.mux.Unlock()

	if err := u.checkUser(req); err != nil {
		return db.User{}, err
	}

	return u.userDB.CreateUser(db.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Balance:  defaultBalance,
		Status:   constant.UserStatusActive,
	})
}

func (u *UserService) checkUser(req RegisterReq) error {
	dbUser, err := u.userDB.QueryByUsername(req.Username)
	if err != nil {
		return err
	}

	if dbUser != (db.User{}) {
		return errors.New(constant.UsernameExist)
	}

	dbUser, err = u.userDB.QueryByEmail(req.Email)
	if err != nil {
		return err
	}

	if dbUser != (db.User{}) {
		return errors.New(constant.EmailExist)
	}
	return nil
}

func (u *UserService) GetByUsername(username string) (db.User, error) {
	return u.userDB.QueryByUsername(username)
}

func (u *UserService) GetById(userId int64) (db.User, error) {
	return u.userDB.QueryById(userId)
}

func (u *UserService) Logout(user db.User) (db.User, error) {
	user.UpdateAt = time.Now()
	return u.userDB.Update(user)
}

// GetAccount 账户读取(余额+封禁状态),用户不存在返回错误
func (u *UserService) GetAccount(userId int64) (db.User, error) {
	user, err := u.userDB.QueryById(userId)
	if err != nil {
		return db.User{}, err
	}
	if user == (db.User{}) {
		return db.User{}, constant.UserNotExistError
	}
	return user, nil
}

// DebitBet 下注扣款:余额不足返回InsufficientBalanceError且余额不变
// 扣款与流水记录在同一事务内提交
func (u *UserService) DebitBet(userId int64, roundId string, amount int64) (int64, error) {
	user, err := u.userDB.QueryById(userId)
	if err != nil {
		return 0, constant.BetStoreError
	}

	// 用户余额不足
	if user.Balance < amount {
		return 0, constant.InsufficientBalanceError
	}

	newBalance := user.Balance - amount
	err = u.userDB.BettingTransaction(func(tx *gorm.DB) error {
		if errs := tx.Model(&db.User{}).Where("id = ? and balance >= ?", user.ID, amount).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount)); errs.Error != nil {
			return errs.Error
		} else if errs.RowsAffected <= 0 {
			return constant.InsufficientBalanceError
		}

		// record bet history
		record := db.BetRecord{
			UserId:        user.ID,
			RoundId:       roundId,
			Status:        constant.BET_STATE_PLACE,
			Amount:        amount,
			BalanceBefore: user.Balance,
		}
		return tx.Model(&db.BetRecord{}).Create(&record).Error
	})

	if errors.Is(err, constant.InsufficientBalanceError) {
		return 0, err
	}
	if err != nil {
		return 0, constant.BetStoreError
	}
	return newBalance, nil
}

// CreditCashout 提现入账,amount为应得总额(本金*倍数)
func (u *UserService) CreditCashout(userId int64, roundId string, amount int64, multiplier float64) (int64, error) {
	return u.credit(userId, roundId, amount, multiplier, constant.BET_STATE_CASHOUT)
}

// RefundBet 下注退款(本局在扣款确认前已重置)
func (u *UserService) RefundBet(userId int64, roundId string, amount int64) (int64, error) {
	return u.credit(userId, roundId, amount, 0, constant.BET_STATE_REFUND)
}

func (u *UserService) credit(userId int64, roundId string, amount int64, multiplier float64, status int) (int64, error) {
	user, err := u.userDB.QueryById(userId)
	if err != nil {
		return 0, constant.CashoutStoreError
	}

	newBalance := user.Balance + amount
	err = u.userDB.BettingTransaction(func(tx *gorm.DB) error {
		if errs := tx.Model(&db.User{}).Where("id = ?", user.ID).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; errs != nil {
			return errs
		}

		record := db.BetRecord{
			UserId:        user.ID,
			RoundId:       roundId,
			Status:        status,
			Amount:        amount,
			Multiplier:    multiplier,
			BalanceBefore: user.Balance,
		}
		return tx.Model(&db.BetRecord{}).Create(&record).Error
	})

	if err != nil {
		return 0, constant.CashoutStoreError
	}
	return newBalance, nil
}

// SubmitDeposit 充值申请入库等待人工核验,余额此时不变
// 交易ID先去除首尾空白再校验长度
func (u *UserService) SubmitDeposit(userId int64, transactionId string) error {
	transactionId = strings.TrimSpace(transactionId)
	if len(transactionId) < 10 || len(transactionId) > 20 {
		return constant.InvalidTransactionIdError
	}

	_, err := u.transferDB.CreateDepositRequest(db.DepositRequest{
		UserId:        userId,
		TransactionId: transactionId,
		Status:        constant.TransferPending,
	})
	return err
}

// SubmitWithdrawal 提款申请:校验余额充足后入库,余额在人工处理时才扣减
func (u *UserService) SubmitWithdrawal(userId int64, amount int64, upiId string, minWithdrawal int64) error {
	if amount <= 0 || amount < minWithdrawal {
		return constant.InvalidWithdrawalError
	}
	if len(upiId) < 5 || !strings.Contains(upiId, "@") {
		return constant.InvalidUpiError
	}

	user, err := u.userDB.QueryById(userId)
	if err != nil {
		return err
	}
	if user.Balance < amount {
		return constant.InsufficientBalanceError
	}

	_, err = u.transferDB.CreateWithdrawalRequest(db.WithdrawalRequest{
		UserId: userId,
		Amount: amount,
		UpiId:  upiId,
		Status: constant.TransferPending,
	})
	return err
}

// BetRecords 最近流水
func (u *UserService) BetRecords(userId int64, limit int) ([]db.BetRecord, error) {
	return u.recordDB.ListByUserId(userId, limit)
}
