package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(a *model.Assignment) error {
	return r.DB.Create(a).Error
}

func (r *AssignmentRepository) FindByID(id uint) (*model.Assignment, error) {
	var a model.Assignment
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) FindByContentID(contentID uint) (*model.Assignment, error) {
	var a model.Assignment
	err := r.DB.Where("content_id = ?", contentID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) CreateSubmission(s *model.AssignmentSubmission) error {
	return r.DB.Create(s).Error
}

func (r *AssignmentRepository) FindSubmissionByID(id uint) (*model.AssignmentSubmission, error) {
	var s model.AssignmentSubmission
	err := r.DB.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AssignmentRepository) FindSubmission(assignmentID, userID uint) (*model.AssignmentSubmission, error) {
	var s model.AssignmentSubmission
	err := r.DB.Where("assignment_id = ? AND user_id = ?", assignmentID, userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateGrade 教师评分：分数/反馈/状态可反复改，is_late 与提交内容不动
func (r *AssignmentRepository) UpdateGrade(s *model.AssignmentSubmission) error {
	return r.DB.Model(&model.AssignmentSubmission{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"status":    s.Status,
			"score":     s.Score,
			"feedback":  s.Feedback,
			"graded_by": s.GradedBy,
			"graded_at": s.GradedAt,
		}).Error
}
