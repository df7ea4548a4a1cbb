package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

// FindByID 加载课程及有序的模块/内容，完成判定都基于这份快照
func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.`order` ASC")
		}).
		Preload("Modules.Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("contents.`order` ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(publishedOnly bool, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	q := r.DB.Model(&model.Course{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Offset((page - 1) * limit).Limit(limit).Order("id DESC").Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) CreateModule(m *model.CourseModule) error {
	return r.DB.Create(m).Error
}

func (r *CourseRepository) FindModuleByID(id uint) (*model.CourseModule, error) {
	var m model.CourseModule
	err := r.DB.Preload("Contents").First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CourseRepository) CreateContent(c *model.Content) error {
	return r.DB.Create(c).Error
}

func (r *CourseRepository) FindContentByID(id uint) (*model.Content, error) {
	var c model.Content
	err := r.DB.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementEnrollmentCount 报名计数器自增，必须与报名插入同事务
func (r *CourseRepository) IncrementEnrollmentCount(tx *gorm.DB, courseID uint) error {
	return tx.Model(&model.Course{}).Where("id = ?", courseID).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
}
