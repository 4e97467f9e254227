package database

import (
	"edu_platform_backend/internal/config"
	"edu_platform_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Course{},
		&model.Lesson{},
		&model.Lecture{},
		&model.Test{},
		&model.Exam{},
		&model.Question{},
		&model.Answer{},
		&model.MatchingOption{},
		&model.MatchingPair{},
		&model.StudentTestAttempt{},
		&model.StudentExamAttempt{},
		&model.StudentAnswerDetail{},
		&model.StudentAnswersDetail{},
		&model.StudentMatchingDetail{},
		&model.StudentLesson{},
		&model.StudentCourse{},
		&model.Certificate{},
		&model.Notification{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
