package db

import (
	"time"

	"gorm.io/gorm"
)

// Round 每局崩盘结果
type Round struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Multiplier float64   `json:"multiplier" gorm:"not null"`
	EndedAt    time.Time `json:"endedAt" gorm:"autoCreateTime; not null"`
}

type RoundDB struct {
	db *gorm.DB
}

func NewRoundDB(db *gorm.DB) *RoundDB {
	return &RoundDB{db: db}
}

func (r *RoundDB) CreateRound(round Round) (Round, error) {
	result := r.db.Model(&Round{}).Create(&round)
	return round, result.Error
}

// LatestMultipliers 最近N局崩盘倍数,最新在前
func (r *RoundDB) LatestMultipliers(limit int) ([]float64, error) {
	rounds := make([]Round, 0, limit)
	result := r.db.Model(&Round{}).Order("ended_at desc").Limit(limit).Find(&rounds)
	if result.Error != nil {
		return nil, result.Error
	}

	multipliers := make([]float64, 0, len(rounds))
	for index := range rounds {
		multipliers = append(multipliers, rounds[index].Multiplier)
	}
	return multipliers, nil
}
