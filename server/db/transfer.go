package db

import (
	"time"

	"gorm.io/gorm"
)

// DepositRequest 充值申请(等待人工审核,审核流程不在本服务内)
type DepositRequest struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	UserId        int64     `json:"userId" gorm:"index"`
	TransactionId string    `json:"transactionId" gorm:"not null"`
	Status        string    `json:"status" gorm:"not null;default:pending"`
	RequestedAt   time.Time `json:"requestedAt" gorm:"autoCreateTime; not null"`
}

// WithdrawalRequest 提款申请,金额为分
type WithdrawalRequest struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	UserId      int64     `json:"userId" gorm:"index"`
	Amount      int64     `json:"amount" gorm:"not null"`
	UpiId       string    `json:"upiId" gorm:"not null"`
	Status      string    `json:"status" gorm:"not null;default:pending"`
	RequestedAt time.Time `json:"requestedAt" gorm:"autoCreateTime; not null"`
}

type TransferDB struct {
	db *gorm.DB
}

func NewTransferDB(db *gorm.DB) *TransferDB {
	return &TransferDB{db: db}
}

func (t *TransferDB) CreateDepositRequest(request DepositRequest) (DepositRequest, error) {
	result := t.db.Model(&DepositRequest{}).Create(&request)
	return request, result.Error
}

func (t *TransferDB) CreateWithdrawalRequest(request WithdrawalRequest) (WithdrawalRequest, error) {
	result := t.db.Model(&WithdrawalRequest{}).Create(&request)
	return request, result.Error
}
