package repository

import (
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(tx *gorm.DB, e *model.Enrollment) error {
	return tx.Create(e).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.
		Preload("ContentProgress").
		Preload("ModuleProgress").
		Preload("Badges").
		First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.
		Preload("ContentProgress").
		Preload("ModuleProgress").
		Preload("Badges").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Preload("Badges").Where("user_id = ?", userID).Find(&es).Error
	return es, err
}

// ListByCourseIDs 一组课程下的全部报名，路径徽章清点用
func (r *EnrollmentRepository) ListByCourseIDs(courseIDs []uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Preload("Badges").Where("course_id IN ?", courseIDs).Find(&es).Error
	return es, err
}

// UpdateVersioned 带乐观锁的报名主行更新：version 不匹配说明有并发写，
// 返回 Conflict 由上层在有界次数内重试。
func (r *EnrollmentRepository) UpdateVersioned(tx *gorm.DB, e *model.Enrollment) error {
	prev := e.Version
	res := tx.Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", e.ID, prev).
		Updates(map[string]interface{}{
			"status":                e.Status,
			"progress_percentage":   e.ProgressPercentage,
			"certificate_issued":    e.CertificateIssued,
			"certificate_url":       e.CertificateURL,
			"certificate_issued_on": e.CertificateIssuedOn,
			"completed_at":          e.CompletedAt,
			"version":               prev + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ConflictErr("enrollment was modified concurrently")
	}
	e.Version = prev + 1
	return nil
}

func (r *EnrollmentRepository) SaveContentProgress(tx *gorm.DB, cp *model.ContentProgress) error {
	return tx.Save(cp).Error
}

func (r *EnrollmentRepository) SaveModuleProgress(tx *gorm.DB, mp *model.ModuleProgress) error {
	return tx.Save(mp).Error
}

// AddBadge 追加徽章，(enrollment_id, badge_id) 唯一索引兜底防重
func (r *EnrollmentRepository) AddBadge(tx *gorm.DB, enrollmentID, badgeID uint) (bool, error) {
	var n int64
	if err := tx.Model(&model.EnrollmentBadge{}).
		Where("enrollment_id = ? AND badge_id = ?", enrollmentID, badgeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	eb := &model.EnrollmentBadge{
		EnrollmentID: enrollmentID,
		BadgeID:      badgeID,
		EarnedAt:     time.Now(),
	}
	if err := tx.Create(eb).Error; err != nil {
		return false, err
	}
	return true, nil
}

// HeldBadgeIDs 用户通过任意报名已持有的徽章集合
func (r *EnrollmentRepository) HeldBadgeIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.EnrollmentBadge{}).
		Joins("JOIN enrollments ON enrollments.id = enrollment_badges.enrollment_id").
		Where("enrollments.user_id = ?", userID).
		Pluck("enrollment_badges.badge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	held := make(map[uint]bool, len(ids))
	for _, id := range ids {
		held[id] = true
	}
	return held, nil
}
