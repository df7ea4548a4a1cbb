package service

import (
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LearningPathService 学习路径编排与路径徽章发放。
// 课程完成提交后通过 ReevaluateCourse 钩子触发复评；
// AwardPathBadges 是可重跑的清点，重复执行不会重复发放。
type LearningPathService struct {
	PathRepo       *repository.LearningPathRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	BadgeRepo      *repository.BadgeRepository
	Enrollments    *EnrollmentService
	Sink           NotificationSink
	DB             *gorm.DB
}

func NewLearningPathService(
	pathRepo *repository.LearningPathRepository,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	badgeRepo *repository.BadgeRepository,
	enrollments *EnrollmentService,
	sink NotificationSink,
	db *gorm.DB,
) *LearningPathService {
	return &LearningPathService{
		PathRepo:       pathRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		BadgeRepo:      badgeRepo,
		Enrollments:    enrollments,
		Sink:           sink,
		DB:             db,
	}
}

type PathCourseInput struct {
	CourseID uint `json:"courseId" binding:"required"`
	IsKey    bool `json:"isKey,omitempty"`
}

type CreatePathRequest struct {
	Title              string             `json:"title" binding:"required"`
	Description        string             `json:"description,omitempty"`
	CompletionCriteria model.PathCriteria `json:"completionCriteria,omitempty"`
	CompletionBadgeID  *uint              `json:"completionBadgeId,omitempty"`
	Courses            []PathCourseInput  `json:"courses" binding:"required"`
}

// CreatePath 创建路径。课程按给定顺序定位；
// key_courses 策略要求至少有一门关键课程。
func (s *LearningPathService) CreatePath(creatorID uint, req CreatePathRequest) (*model.LearningPath, error) {
	if len(req.Courses) == 0 {
		return nil, util.ValidationErr("path requires at least one course")
	}
	criteria := req.CompletionCriteria
	if criteria == "" {
		criteria = model.CriteriaAllCourses
	}

	hasKey := false
	seen := make(map[uint]bool, len(req.Courses))
	for _, c := range req.Courses {
		if seen[c.CourseID] {
			return nil, util.ValidationErr("duplicate course in path")
		}
		seen[c.CourseID] = true
		if _, err := s.CourseRepo.FindByID(c.CourseID); err != nil {
			return nil, util.NotFoundErr("course")
		}
		if c.IsKey {
			hasKey = true
		}
	}
	if criteria == model.CriteriaKeyCourses && !hasKey {
		return nil, util.ValidationErr("key_courses path requires at least one key course")
	}
	if req.CompletionBadgeID != nil {
		if _, err := s.BadgeRepo.FindByID(*req.CompletionBadgeID); err != nil {
			return nil, util.NotFoundErr("badge")
		}
	}

	path := &model.LearningPath{
		Title:              req.Title,
		Description:        req.Description,
		CreatorID:          creatorID,
		CompletionCriteria: criteria,
		CompletionBadgeID:  req.CompletionBadgeID,
	}
	for i, c := range req.Courses {
		path.Courses = append(path.Courses, model.LearningPathCourse{
			CourseID: c.CourseID,
			Position: i,
			IsKey:    c.IsKey,
		})
	}
	if err := s.PathRepo.Create(path); err != nil {
		return nil, err
	}
	return path, nil
}

func (s *LearningPathService) GetPath(id uint) (*model.LearningPath, error) {
	p, err := s.PathRepo.FindByID(id)
	if err != nil {
		return nil, util.NotFoundErr("learning path")
	}
	return p, nil
}

func (s *LearningPathService) ListPaths(page, limit int) ([]model.LearningPath, int64, error) {
	return s.PathRepo.List(page, limit)
}

// EnrollPath 把用户报进路径的每门课程。已报名的课程跳过，
// 其余任何一门失败则整体报错（前面已成的报名保留）。
func (s *LearningPathService) EnrollPath(userID, pathID uint, due *time.Time) (*model.LearningPath, error) {
	path, err := s.PathRepo.FindByID(pathID)
	if err != nil {
		return nil, util.NotFoundErr("learning path")
	}

	for _, pc := range path.Courses {
		_, err := s.Enrollments.Enroll(userID, pc.CourseID, EnrollRequest{
			DueDate:    due,
			IsRequired: true,
			RequiredBy: "learning_path:" + path.Title,
		})
		if err == util.ErrAlreadyEnrolled {
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return path, nil
}

// PathCourseProgress 路径内单门课程的进度视图
type PathCourseProgress struct {
	CourseID uint                   `json:"courseId"`
	Position int                    `json:"position"`
	IsKey    bool                   `json:"isKey"`
	Enrolled bool                   `json:"enrolled"`
	Status   model.EnrollmentStatus `json:"status,omitempty"`
	Progress float64                `json:"progress"`
}

type PathProgress struct {
	PathID     uint                 `json:"pathId"`
	Completion CompletionResult     `json:"completion"`
	Progress   float64              `json:"progress"` // 已完成必修课程占比
	Courses    []PathCourseProgress `json:"courses"`
}

// GetPathProgress 用户在路径内的整体进度
func (s *LearningPathService) GetPathProgress(userID, pathID uint) (*PathProgress, error) {
	path, err := s.PathRepo.FindByID(pathID)
	if err != nil {
		return nil, util.NotFoundErr("learning path")
	}
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[uint]*model.Enrollment, len(enrollments))
	completed := make(map[uint]bool)
	for i := range enrollments {
		e := &enrollments[i]
		byCourse[e.CourseID] = e
		if e.Status == model.EnrollCompleted {
			completed[e.CourseID] = true
		}
	}

	out := &PathProgress{
		PathID:     path.ID,
		Completion: EvaluateLearningPathCompletion(path, enrollments),
		Progress:   pathProgress(path, completed),
	}
	for _, pc := range path.Courses {
		cp := PathCourseProgress{
			CourseID: pc.CourseID,
			Position: pc.Position,
			IsKey:    pc.IsKey,
		}
		if e, ok := byCourse[pc.CourseID]; ok {
			cp.Enrolled = true
			cp.Status = e.Status
			cp.Progress = e.ProgressPercentage
		}
		out.Courses = append(out.Courses, cp)
	}
	return out, nil
}

// ReevaluateCourse 课程完成后的回调：复评所有包含该课程的路径
func (s *LearningPathService) ReevaluateCourse(courseID uint) {
	paths, err := s.PathRepo.FindByCourseID(courseID)
	if err != nil {
		logger.Log.Error("path lookup for reevaluation failed",
			zap.Uint("courseId", courseID), zap.Error(err))
		return
	}
	for i := range paths {
		if _, err := s.AwardPathBadges(paths[i].ID); err != nil {
			logger.Log.Error("path badge sweep failed",
				zap.Uint("pathId", paths[i].ID), zap.Error(err))
		}
	}
}

// AwardPathBadges 清点路径徽章：对每个完成了路径的用户发放完成徽章。
// 可安全重跑，唯一索引保证已发放的用户不重复发。返回本次新发数量。
func (s *LearningPathService) AwardPathBadges(pathID uint) (int, error) {
	path, err := s.PathRepo.FindByID(pathID)
	if err != nil {
		return 0, util.NotFoundErr("learning path")
	}
	if path.CompletionBadgeID == nil {
		return 0, nil
	}
	badge, err := s.BadgeRepo.FindByID(*path.CompletionBadgeID)
	if err != nil {
		return 0, util.NotFoundErr("badge")
	}

	courseIDs := make([]uint, 0, len(path.Courses))
	for _, pc := range path.Courses {
		courseIDs = append(courseIDs, pc.CourseID)
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	all, err := s.EnrollmentRepo.ListByCourseIDs(courseIDs)
	if err != nil {
		return 0, err
	}

	byUser := make(map[uint][]model.Enrollment)
	for _, e := range all {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	awarded := 0
	for userID, es := range byUser {
		res := EvaluateLearningPathCompletion(path, es)
		if !res.IsComplete {
			continue
		}

		// 按用户去重，换了挂靠报名也不重复发
		held, err := s.EnrollmentRepo.HeldBadgeIDs(userID)
		if err != nil {
			return awarded, err
		}
		if held[badge.ID] {
			continue
		}

		// 徽章挂在该用户路径内最近完成的报名上
		var target *model.Enrollment
		for i := range es {
			e := &es[i]
			if e.Status != model.EnrollCompleted {
				continue
			}
			if target == nil || (e.CompletedAt != nil && target.CompletedAt != nil &&
				e.CompletedAt.After(*target.CompletedAt)) {
				target = e
			}
		}
		if target == nil {
			continue
		}

		var added bool
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			added, err = s.EnrollmentRepo.AddBadge(tx, target.ID, badge.ID)
			return err
		})
		if err != nil {
			return awarded, err
		}
		if !added {
			continue
		}
		awarded++
		monitoring.BadgesAwarded.WithLabelValues(string(model.BadgeLearningPath)).Inc()
		if s.Sink != nil {
			if err := s.Sink.Send(userID, "Badge earned",
				"You completed the learning path "+path.Title, "badge",
				map[string]string{"badgeId": itoa(badge.ID), "pathId": itoa(path.ID)}); err != nil {
				logger.Log.Warn("path badge notification failed", zap.Error(err))
			}
		}
	}
	return awarded, nil
}
