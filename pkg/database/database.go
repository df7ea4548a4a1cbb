package database

import (
	"fmt"
	"log"

	"lms_backend/internal/config"
	"lms_backend/internal/model"

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

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedBadges(db)

	return db, nil
}

// Migrate 迁移全部业务表，测试里也用同一份清单建内存库
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseModule{},
		&model.Content{},
		&model.Enrollment{},
		&model.ContentProgress{},
		&model.ModuleProgress{},
		&model.EnrollmentBadge{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizAttempt{},
		&model.Assignment{},
		&model.AssignmentSubmission{},
		&model.LearningPath{},
		&model.LearningPathCourse{},
		&model.Badge{},
		&model.Notification{},
	)
}

// 默认的参与类徽章
func seedBadges(db *gorm.DB) {
	var count int64
	db.Model(&model.Badge{}).Count(&count)
	if count > 0 {
		return
	}

	defaults := []model.Badge{
		{Name: "First Steps", Description: "完成第一门课程", Type: model.BadgeEngagement, RequiredCount: 1, Points: 10, Icon: "first-steps"},
		{Name: "Fast Learner", Description: "完成五门课程", Type: model.BadgeEngagement, RequiredCount: 5, Points: 50, Icon: "fast-learner"},
		{Name: "Knowledge Seeker", Description: "完成十门课程", Type: model.BadgeEngagement, RequiredCount: 10, Points: 100, Icon: "knowledge-seeker"},
	}
	for _, b := range defaults {
		db.Create(&b)
	}
}
