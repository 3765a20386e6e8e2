package db

import (
	"time"

	"gorm.io/gorm"
)

// BetRecord 玩家每次扣款/入账流水,金额为分
type BetRecord struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	UserId        int64     `json:"userId" gorm:"index"`
	RoundId       string    `json:"roundId"`
	Status        int       `json:"status"`
	Amount        int64     `json:"amount"`
	Multiplier    float64   `json:"multiplier"`
	BalanceBefore int64     `json:"balanceBefore"`
	CreateAt      time.Time `json:"createTime" gorm:"autoCreateTime:milli; not null; default:(datetime('now', 'localtime'))"`
}

type BetRecordDB struct {
	db *gorm.DB
}

func NewBetRecordDB(db *gorm.DB) *BetRecordDB {
	return &BetRecordDB{db: db}
}

func (b *BetRecordDB) CreateBetRecord(record BetRecord) (BetRecord, error) {
	result := b.db.Model(&BetRecord{}).Create(&record)
	return record, result.Error
}

func (b *BetRecordDB) ListByUserId(userId int64, limit int) ([]BetRecord, error) {
	records := make([]BetRecord, 0, limit)
	result := b.db.Model(&BetRecord{}).Where("user_id = ?", userId).Order("id desc").Limit(limit).Find(&records)
	return records, result.Error
}
