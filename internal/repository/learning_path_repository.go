package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) Create(p *model.LearningPath) error {
	return r.DB.Create(p).Error
}

func (r *LearningPathRepository) FindByID(id uint) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.Preload("Courses", func(db *gorm.DB) *gorm.DB {
		return db.Order("learning_path_courses.position ASC")
	}).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LearningPathRepository) List(page, limit int) ([]model.LearningPath, int64, error) {
	var ps []model.LearningPath
	var total int64

	if err := r.DB.Model(&model.LearningPath{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Preload("Courses").
		Offset((page - 1) * limit).Limit(limit).Order("id DESC").
		Find(&ps).Error
	return ps, total, err
}

// FindByCourseID 包含某课程的所有路径，课程完成后要逐一复评
func (r *LearningPathRepository) FindByCourseID(courseID uint) ([]model.LearningPath, error) {
	var ids []uint
	err := r.DB.Model(&model.LearningPathCourse{}).
		Where("course_id = ?", courseID).
		Pluck("path_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var ps []model.LearningPath
	err = r.DB.Preload("Courses").Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}
