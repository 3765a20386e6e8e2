package db

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User 账号余额以分为单位存储(int64),对外展示时转为两位小数
type User struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	Username string    `json:"username" gorm:"uniqueIndex;not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null"`
	Password string    `json:"-" gorm:"not null"`
	Balance  int64     `json:"balance"`
	Status   string    `json:"status" gorm:"not null;default:active"`
	CreateAt time.Time `json:"-" gorm:"autoCreateTime:milli; not null; default:(datetime('now', 'localtime'))"`
	UpdateAt time.Time `json:"-" gorm:"not null; default:(datetime('now', 'localtime'))"`
}

func (u *User) UserToJsonStr() string {
	marshal, _ := json.Marshal(u)
	return string(marshal)
}

func (u *User) JsonStrToUser(jsonStr string) error {
	return json.Unmarshal([]byte(jsonStr), &u)
}

type UserDB struct {
	db *gorm.DB
}

func NewUserDB(db *gorm.DB) *UserDB {
	return &UserDB{db: db}
}

func (u *UserDB) CreateUser(user User) (User, error) {
	result := u.db.Model(&User{}).Create(&user)
	return user, result.Error
}

func (u *UserDB) QueryById(id int64) (User, error) {
	var user User
	result := u.db.Find(&user, id)
	return user, result.Error
}

func (u *UserDB) QueryByUsername(username string) (User, error) {
	var user User
	result := u.db.Find(&user, "username = ?", username)
	return user, result.Error
}

func (u *UserDB) QueryByEmail(email string) (User, error) {
	var user User
	result := u.db.Find(&user, "email = ?", email)
	return user, result.Error
}

func (u *UserDB) Update(user User) (User, error) {
	tx := u.db.Model(&user).Updates(&user)
	return user, tx.Error
}

func (u *UserDB) BettingTransaction(next func(tx *gorm.DB) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return next(tx)
	})
}
