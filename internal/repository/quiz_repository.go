package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(q *model.Quiz) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.`order` ASC")
	}).First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) FindByContentID(contentID uint) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.`order` ASC")
	}).Where("content_id = ?", contentID).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// AppendAttempt 只追加，历史作答从不修改
func (r *QuizRepository) AppendAttempt(a *model.QuizAttempt) error {
	return r.DB.Create(a).Error
}

func (r *QuizRepository) CountAttempts(quizID, userID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&n).Error
	return n, err
}

func (r *QuizRepository) ListAttempts(quizID, userID uint) ([]model.QuizAttempt, error) {
	var as []model.QuizAttempt
	err := r.DB.Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("id ASC").Find(&as).Error
	return as, err
}
