package db

import (
	"log"
	"os"
	"path"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	_ "github.com/mattn/go-sqlite3"
)

func NewGameDB() *gorm.DB {

	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	homeFullDir := path.Join(homeDir, ".games")
	if errs := os.MkdirAll(homeFullDir, 0700); errs != nil {
		panic(errs)
	}

	// fixes error "database is locked", caused by concurrent access from bet/cashout goroutines to a single sqlite3 db connection
	db, err := gorm.Open(sqlite.Open(path.Join(homeFullDir, "crash.bet.db?cache=shared")), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		panic(err)
	}

	if err = db.AutoMigrate(User{}, BetRecord{}, Round{}, DepositRequest{}, WithdrawalRequest{}); err != nil {
		log.Println("AutoMigrate error: ", err)
	}

	return db
}
