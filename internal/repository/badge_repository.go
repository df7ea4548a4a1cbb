package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) Create(b *model.Badge) error {
	return r.DB.Create(b).Error
}

func (r *BadgeRepository) FindByID(id uint) (*model.Badge, error) {
	var b model.Badge
	err := r.DB.First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BadgeRepository) List() ([]model.Badge, error) {
	var bs []model.Badge
	err := r.DB.Order("id ASC").Find(&bs).Error
	return bs, err
}

// FindCourseCompletionBadge 课程完成类徽章按课程唯一
func (r *BadgeRepository) FindCourseCompletionBadge(courseID uint) (*model.Badge, error) {
	var b model.Badge
	err := r.DB.Where("type = ? AND course_id = ?", model.BadgeCourseCompletion, courseID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}
