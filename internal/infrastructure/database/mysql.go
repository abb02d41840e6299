package database

import (
	"fmt"
	"log"
	"time"

	"chamapay/internal/config"
	"chamapay/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitMySQL opens the MySQL connection and migrates the schema.
func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Repositories branch on gorm.ErrDuplicatedKey; without translation
		// the driver's raw 1062 error would leak through as a 500.
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to MySQL: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get underlying DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(
		&model.User{},
		&model.Chama{},
		&model.ChamaMember{},
		&model.Contribution{},
		&model.Loan{},
		&model.LoanGuarantor{},
		&model.ChamaTransaction{},
		&model.ChamaCycle{},
		&model.PurchaseGoal{},
		&model.AuditLog{},
		&model.OutboxMessage{},
		&model.Announcement{},
		&model.Poll{},
		&model.PollVote{},
		&model.Post{},
		&model.Message{},
	)
	if err != nil {
		log.Fatalf("schema migration failed: %v", err)
	}

	DB = db
	log.Println("MySQL connected")
	return db
}
