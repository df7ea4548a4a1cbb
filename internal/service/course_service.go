package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const courseCacheTTL = 5 * time.Minute

// CourseService 课程/模块/内容的编目管理。
// 只有课程讲师或管理员可写；已发布课程对学员可见。
// 课程详情走 Redis 缓存，任何写操作后失效。
type CourseService struct {
	CourseRepo     *repository.CourseRepository
	QuizRepo       *repository.QuizRepository
	AssignmentRepo *repository.AssignmentRepository
	BadgeRepo      *repository.BadgeRepository
	Redis          *redis.Client
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	assignmentRepo *repository.AssignmentRepository,
	badgeRepo *repository.BadgeRepository,
	rdb *redis.Client,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		QuizRepo:       quizRepo,
		AssignmentRepo: assignmentRepo,
		BadgeRepo:      badgeRepo,
		Redis:          rdb,
	}
}

func courseCacheKey(id uint) string {
	return fmt.Sprintf("course:%d", id)
}

func (s *CourseService) invalidateCourse(id uint) {
	if s.Redis != nil {
		s.Redis.Del(context.Background(), courseCacheKey(id))
	}
}

type CreateCourseRequest struct {
	Title               string  `json:"title" binding:"required"`
	Description         string  `json:"description,omitempty"`
	MinimumScore        float64 `json:"minimumScore,omitempty"`
	CertificateTemplate string  `json:"certificateTemplate,omitempty"`
}

func (s *CourseService) CreateCourse(instructorID uint, req CreateCourseRequest) (*model.Course, error) {
	if req.MinimumScore < 0 || req.MinimumScore > 100 {
		return nil, util.ValidationErr("minimumScore must be within 0-100")
	}
	course := &model.Course{
		Title:               req.Title,
		Description:         req.Description,
		InstructorID:        instructorID,
		CompletionCriteria:  model.CriteriaAllModules,
		MinimumScore:        req.MinimumScore,
		CertificateTemplate: req.CertificateTemplate,
	}
	if course.CertificateTemplate == "" {
		course.CertificateTemplate = "default"
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	if s.Redis != nil {
		if raw, err := s.Redis.Get(context.Background(), courseCacheKey(id)).Bytes(); err == nil {
			var cached model.Course
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(course); err == nil {
			s.Redis.Set(context.Background(), courseCacheKey(id), raw, courseCacheTTL)
		}
	}
	return course, nil
}

func (s *CourseService) ListCourses(publishedOnly bool, page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(publishedOnly, page, limit)
}

type UpdateCourseRequest struct {
	Title               *string  `json:"title,omitempty"`
	Description         *string  `json:"description,omitempty"`
	MinimumScore        *float64 `json:"minimumScore,omitempty"`
	CertificateTemplate *string  `json:"certificateTemplate,omitempty"`
}

// UpdateCourse 更新课程基本信息，字段按需更新
func (s *CourseService) UpdateCourse(actorID uint, role model.UserRole, courseID uint, req UpdateCourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may edit")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, util.ValidationErr("title must not be empty")
		}
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.MinimumScore != nil {
		if *req.MinimumScore < 0 || *req.MinimumScore > 100 {
			return nil, util.ValidationErr("minimumScore must be within 0-100")
		}
		course.MinimumScore = *req.MinimumScore
	}
	if req.CertificateTemplate != nil && *req.CertificateTemplate != "" {
		course.CertificateTemplate = *req.CertificateTemplate
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidateCourse(course.ID)
	return course, nil
}

// canEdit 课程讲师本人或管理员
func canEdit(course *model.Course, actorID uint, role model.UserRole) bool {
	return role == model.Admin || course.InstructorID == actorID
}

// Publish 发布课程，发布后学员方可报名。
// 空课程（无模块）不允许发布。
func (s *CourseService) Publish(actorID uint, role model.UserRole, courseID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may publish")
	}
	if len(course.Modules) == 0 {
		return nil, util.InvalidStateErr("cannot publish a course without modules")
	}
	course.Published = true
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidateCourse(course.ID)
	return course, nil
}

type AddModuleRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description,omitempty"`
	Order        int    `json:"order"`
	QuizRequired bool   `json:"quizRequired,omitempty"`
}

func (s *CourseService) AddModule(actorID uint, role model.UserRole, courseID uint, req AddModuleRequest) (*model.CourseModule, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may edit")
	}
	for _, m := range course.Modules {
		if m.Order == req.Order {
			return nil, util.ValidationErr("module order already used in this course")
		}
	}

	m := &model.CourseModule{
		CourseID:     courseID,
		Title:        req.Title,
		Description:  req.Description,
		Order:        req.Order,
		QuizRequired: req.QuizRequired,
	}
	if err := s.CourseRepo.CreateModule(m); err != nil {
		return nil, err
	}
	s.invalidateCourse(courseID)
	return m, nil
}

type AddContentRequest struct {
	Title           string            `json:"title" binding:"required"`
	Type            model.ContentType `json:"type" binding:"required"`
	Order           int               `json:"order"`
	IsRequired      *bool             `json:"isRequired,omitempty"` // 缺省必修
	Description     string            `json:"description,omitempty"`
	VideoURL        string            `json:"videoUrl,omitempty"`
	VideoDuration   float64           `json:"videoDuration,omitempty"`
	DocumentURL     string            `json:"documentUrl,omitempty"`
	PresentationURL string            `json:"presentationUrl,omitempty"`
	LinkURL         string            `json:"linkUrl,omitempty"`
}

// AddContent 向模块添加内容，类型必填字段在模型层校验
func (s *CourseService) AddContent(actorID uint, role model.UserRole, moduleID uint, req AddContentRequest) (*model.Content, error) {
	mod, err := s.CourseRepo.FindModuleByID(moduleID)
	if err != nil {
		return nil, util.NotFoundErr("module")
	}
	course, err := s.CourseRepo.FindByID(mod.CourseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may edit")
	}

	content := &model.Content{
		ModuleID:        moduleID,
		Title:           req.Title,
		Type:            req.Type,
		Order:           req.Order,
		IsRequired:      req.IsRequired == nil || *req.IsRequired,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		VideoDuration:   req.VideoDuration,
		DocumentURL:     req.DocumentURL,
		PresentationURL: req.PresentationURL,
		LinkURL:         req.LinkURL,
	}
	if err := content.Validate(); err != nil {
		return nil, util.ValidationErr(err.Error())
	}
	if err := s.CourseRepo.CreateContent(content); err != nil {
		return nil, err
	}
	s.invalidateCourse(course.ID)
	return content, nil
}

// AttachQuiz 在 quiz 类型内容上挂测验定义（1:1）
func (s *CourseService) AttachQuiz(actorID uint, role model.UserRole, contentID uint, quiz *model.Quiz) (*model.Quiz, error) {
	content, err := s.CourseRepo.FindContentByID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("content")
	}
	if content.Type != model.ContentQuiz {
		return nil, util.ValidationErr("content is not of quiz type")
	}
	mod, err := s.CourseRepo.FindModuleByID(content.ModuleID)
	if err != nil {
		return nil, util.NotFoundErr("module")
	}
	course, err := s.CourseRepo.FindByID(mod.CourseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may edit")
	}
	if _, err := s.QuizRepo.FindByContentID(contentID); err == nil {
		return nil, util.InvalidStateErr("content already has a quiz")
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if quiz.PassingScore < 0 || quiz.PassingScore > 100 {
		return nil, util.ValidationErr("passingScore must be within 0-100")
	}
	if len(quiz.Questions) == 0 {
		return nil, util.ValidationErr("quiz requires at least one question")
	}
	for _, q := range quiz.Questions {
		if q.Points < 0 {
			return nil, util.ValidationErr("question points must not be negative")
		}
	}

	quiz.ContentID = contentID
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// AttachAssignment 在 assignment 类型内容上挂作业定义（1:1）
func (s *CourseService) AttachAssignment(actorID uint, role model.UserRole, contentID uint, a *model.Assignment) (*model.Assignment, error) {
	content, err := s.CourseRepo.FindContentByID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("content")
	}
	if content.Type != model.ContentAssignment {
		return nil, util.ValidationErr("content is not of assignment type")
	}
	mod, err := s.CourseRepo.FindModuleByID(content.ModuleID)
	if err != nil {
		return nil, util.NotFoundErr("module")
	}
	course, err := s.CourseRepo.FindByID(mod.CourseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !canEdit(course, actorID, role) {
		return nil, util.ForbiddenErr("only the course instructor or an admin may edit")
	}
	if _, err := s.AssignmentRepo.FindByContentID(contentID); err == nil {
		return nil, util.InvalidStateErr("content already has an assignment")
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if a.TotalPoints <= 0 || a.PassingPoints < 0 || a.PassingPoints > a.TotalPoints {
		return nil, util.ValidationErr("invalid points configuration")
	}

	a.ContentID = contentID
	if err := s.AssignmentRepo.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}
