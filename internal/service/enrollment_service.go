package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PathCoordinator 课程完成后回调，复评包含该课程的学习路径
type PathCoordinator interface {
	ReevaluateCourse(courseID uint)
}

// EnrollmentService 报名状态机。
// 状态迁移: not_started → in_progress → completed；到期未完成惰性转 expired。
// completed 的首次进入由 certificate_issued 这个单一幂等门禁保护，
// 并发更新靠进程内按报名加锁 + version 乐观锁（跨进程）串行化。
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	QuizRepo       *repository.QuizRepository
	BadgeRepo      *repository.BadgeRepository
	UserRepo       *repository.UserRepository
	Issuer         CertificateIssuer
	Sink           NotificationSink
	Cfg            *config.Config
	DB             *gorm.DB

	pathCoordinator PathCoordinator
	locks           sync.Map // enrollmentID -> *sync.Mutex
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	badgeRepo *repository.BadgeRepository,
	userRepo *repository.UserRepository,
	issuer CertificateIssuer,
	sink NotificationSink,
	cfg *config.Config,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		QuizRepo:       quizRepo,
		BadgeRepo:      badgeRepo,
		UserRepo:       userRepo,
		Issuer:         issuer,
		Sink:           sink,
		Cfg:            cfg,
		DB:             db,
	}
}

// SetPathCoordinator 路径服务在装配阶段注入，避免构造环
func (s *EnrollmentService) SetPathCoordinator(pc PathCoordinator) {
	s.pathCoordinator = pc
}

func (s *EnrollmentService) lockFor(enrollmentID uint) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(enrollmentID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

type EnrollRequest struct {
	DueDate    *time.Time `json:"dueDate,omitempty"`
	IsRequired bool       `json:"isRequired,omitempty"`
	RequiredBy string     `json:"requiredBy,omitempty"`
}

// Enroll 报名。一人一课一条记录，重复报名拒绝；
// 课程报名计数器在同一事务内自增。
func (s *EnrollmentService) Enroll(userID, courseID uint, req EnrollRequest) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}
	if !course.Published {
		return nil, util.ErrCourseNotPublished
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	e := &model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     model.EnrollNotStarted,
		DueDate:    req.DueDate,
		IsRequired: req.IsRequired,
		RequiredBy: req.RequiredBy,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.EnrollmentRepo.Create(tx, e); err != nil {
			return err
		}
		return s.CourseRepo.IncrementEnrollmentCount(tx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CompletionFacts 一次内容层面的进度事实，进度路由和评分流程共用同一个入口
type CompletionFacts struct {
	Update       ContentProgressUpdate
	QuizScore    *float64 // 测验得分，用于模块最好成绩
	CountAttempt bool
}

// TrackContentProgress 学员上报内容进度（视频心跳、文档阅读等）
func (s *EnrollmentService) TrackContentProgress(actorID, enrollmentID, contentID uint, update ContentProgressUpdate) (*model.Enrollment, error) {
	e, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		return nil, util.NotFoundErr("enrollment")
	}
	if e.UserID != actorID {
		return nil, util.ForbiddenErr("not your enrollment")
	}
	return s.applyProgress(e.UserID, e.CourseID, contentID, CompletionFacts{Update: update})
}

// ApplyContentCompletion 评分流程（测验通过、作业判分）的进度回写入口。
// 与进度路由走完全相同的聚合与状态机路径，避免流程间互调HTTP处理器。
func (s *EnrollmentService) ApplyContentCompletion(userID, contentID uint, facts CompletionFacts) (*model.Enrollment, error) {
	content, err := s.CourseRepo.FindContentByID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("content")
	}
	mod, err := s.CourseRepo.FindModuleByID(content.ModuleID)
	if err != nil {
		return nil, util.NotFoundErr("module")
	}
	e, err := s.EnrollmentRepo.FindByUserAndCourse(userID, mod.CourseID)
	if err != nil {
		return nil, util.NotFoundErr("enrollment")
	}
	return s.applyProgress(e.UserID, e.CourseID, contentID, facts)
}

// applyProgress 单个报名的读-改-写闭环：
// 聚合内容进度 → 模块/课程百分比 → 状态机判定 → 事务提交 → 提交后副作用。
func (s *EnrollmentService) applyProgress(userID, courseID, contentID uint, facts CompletionFacts) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}

	var targetModule *model.CourseModule
	var targetContent *model.Content
	for i := range course.Modules {
		for j := range course.Modules[i].Contents {
			if course.Modules[i].Contents[j].ID == contentID {
				targetModule = &course.Modules[i]
				targetContent = &course.Modules[i].Contents[j]
			}
		}
	}
	if targetContent == nil {
		return nil, util.NotFoundErr("content in course")
	}

	e, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
	if err != nil {
		return nil, util.NotFoundErr("enrollment")
	}

	mu := s.lockFor(e.ID)
	mu.Lock()
	defer mu.Unlock()

	maxRetries := s.Cfg.Completion.MaxWriteRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var newlyCompleted bool
	for attempt := 0; attempt < maxRetries; attempt++ {
		// 每轮重试都基于最新快照
		e, err = s.EnrollmentRepo.FindByUserAndCourse(userID, courseID)
		if err != nil {
			return nil, util.NotFoundErr("enrollment")
		}

		now := time.Now()

		// 到期惰性判定，没有后台定时器
		if s.expireIfDue(e, now) && !s.Cfg.Completion.AllowCompletionAfterExpiry {
			if err := s.persistExpiry(e); err != nil {
				return nil, err
			}
			return nil, util.ErrEnrollmentExpired
		}

		newlyCompleted, err = s.applyOnce(e, course, targetModule, targetContent, facts, now)
		if err == nil {
			break
		}
		if util.KindOf(err) == util.KindConflict && attempt < maxRetries-1 {
			monitoring.EnrollmentConflictRetries.Inc()
			continue
		}
		return nil, err
	}

	if newlyCompleted {
		s.finalizeCompletion(e, course)
	}
	return e, nil
}

// applyOnce 在一个事务里做完整个读-改-写。返回是否首次进入 completed。
func (s *EnrollmentService) applyOnce(e *model.Enrollment, course *model.Course,
	mod *model.CourseModule, content *model.Content, facts CompletionFacts, now time.Time) (bool, error) {

	byContent := make(map[uint]*model.ContentProgress, len(e.ContentProgress))
	for i := range e.ContentProgress {
		byContent[e.ContentProgress[i].ContentID] = &e.ContentProgress[i]
	}

	cp, ok := byContent[content.ID]
	if !ok {
		cp = &model.ContentProgress{
			EnrollmentID: e.ID,
			ContentID:    content.ID,
			Status:       model.ContentInProgress,
		}
		byContent[content.ID] = cp
	}
	if err := ApplyContentProgress(cp, facts.Update, now); err != nil {
		return false, err
	}

	byModule := make(map[uint]*model.ModuleProgress, len(e.ModuleProgress))
	for i := range e.ModuleProgress {
		byModule[e.ModuleProgress[i].ModuleID] = &e.ModuleProgress[i]
	}

	changed := []*model.ModuleProgress{}
	percents := make([]float64, 0, len(course.Modules))
	bestScores := make(map[uint]float64, len(course.Modules))

	for i := range course.Modules {
		m := &course.Modules[i]
		mp, ok := byModule[m.ID]
		if !ok {
			mp = &model.ModuleProgress{EnrollmentID: e.ID, ModuleID: m.ID}
			byModule[m.ID] = mp
		}

		p := ModulePercent(m, byContent)
		dirty := !ok
		if p > mp.Progress { // 模块进度同样单调不减
			mp.Progress = p
			dirty = true
		}
		if mp.Progress >= 100 && mp.CompletedAt == nil {
			t := now
			mp.CompletedAt = &t
			dirty = true
		}
		if m.ID == mod.ID {
			if facts.QuizScore != nil && *facts.QuizScore > mp.BestScore {
				mp.BestScore = *facts.QuizScore
				dirty = true
			}
			if facts.CountAttempt {
				mp.Attempts++
				dirty = true
			}
		}
		if dirty {
			changed = append(changed, mp)
		}
		percents = append(percents, mp.Progress)
		bestScores[m.ID] = mp.BestScore
	}

	// 课程进度单调不减
	courseP := CoursePercent(percents)
	if courseP > e.ProgressPercentage {
		e.ProgressPercentage = courseP
	}

	newlyCompleted := false
	if e.Status != model.EnrollCompleted {
		switch {
		case e.ProgressPercentage <= 0:
			e.Status = model.EnrollNotStarted
		case e.ProgressPercentage < 100:
			e.Status = model.EnrollInProgress
		default:
			if res := EvaluateCourseCompletion(course, e.ProgressPercentage, bestScores); res.IsComplete {
				e.Status = model.EnrollCompleted
			} else {
				e.Status = model.EnrollInProgress
			}
		}
	}

	// 幂等门禁：首次完成才发证书/徽章，门禁关闭与状态迁移同一事务提交
	if e.Status == model.EnrollCompleted && !e.CertificateIssued {
		newlyCompleted = true
		e.CertificateIssued = true
		t := now
		e.CertificateIssuedOn = &t
		e.CompletedAt = &t
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.EnrollmentRepo.SaveContentProgress(tx, cp); err != nil {
			return err
		}
		for _, mp := range changed {
			if err := s.EnrollmentRepo.SaveModuleProgress(tx, mp); err != nil {
				return err
			}
		}
		if newlyCompleted {
			if badge, err := s.BadgeRepo.FindCourseCompletionBadge(course.ID); err == nil {
				added, err := s.EnrollmentRepo.AddBadge(tx, e.ID, badge.ID)
				if err != nil {
					return err
				}
				if added {
					monitoring.BadgesAwarded.WithLabelValues(string(model.BadgeCourseCompletion)).Inc()
				}
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
		}
		return s.EnrollmentRepo.UpdateVersioned(tx, e)
	})
	if err != nil {
		return false, err
	}
	if newlyCompleted {
		monitoring.CertificatesIssued.Inc()
	}
	return newlyCompleted, nil
}

// finalizeCompletion 提交后的出站副作用：证书工件、两条通知、路径复评。
// 全部 best-effort，失败只记日志，已提交的完成状态不回滚。
func (s *EnrollmentService) finalizeCompletion(e *model.Enrollment, course *model.Course) {
	certURL := ""
	user, err := s.UserRepo.FindByID(e.UserID)
	if err == nil && s.Issuer != nil {
		certURL, err = s.Issuer.Generate(context.Background(), user, course)
		if err != nil {
			logger.Log.Error("certificate generation failed",
				zap.Uint("enrollmentId", e.ID), zap.Error(err))
		} else {
			e.CertificateURL = certURL
			if err := s.DB.Model(&model.Enrollment{}).Where("id = ?", e.ID).
				Update("certificate_url", certURL).Error; err != nil {
				logger.Log.Error("certificate url persist failed",
					zap.Uint("enrollmentId", e.ID), zap.Error(err))
			}
		}
	}

	if s.Sink != nil {
		if err := s.Sink.Send(e.UserID, "Certificate issued",
			"You completed "+course.Title, "certificate",
			map[string]string{"courseId": itoa(course.ID), "certificateUrl": certURL}); err != nil {
			logger.Log.Warn("certificate notification failed", zap.Error(err))
		}
		if badge, err := s.BadgeRepo.FindCourseCompletionBadge(course.ID); err == nil {
			if err := s.Sink.Send(e.UserID, "Badge earned",
				"You earned the badge "+badge.Name, "badge",
				map[string]string{"badgeId": itoa(badge.ID)}); err != nil {
				logger.Log.Warn("badge notification failed", zap.Error(err))
			}
		}
	}

	if s.pathCoordinator != nil {
		s.pathCoordinator.ReevaluateCourse(course.ID)
	}
}

// expireIfDue 判断并在内存中标记过期，不落库
func (s *EnrollmentService) expireIfDue(e *model.Enrollment, now time.Time) bool {
	if e.Status == model.EnrollCompleted || e.Status == model.EnrollExpired {
		return e.Status == model.EnrollExpired
	}
	if e.DueDate != nil && now.After(*e.DueDate) {
		e.Status = model.EnrollExpired
		return true
	}
	return false
}

func (s *EnrollmentService) persistExpiry(e *model.Enrollment) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := s.EnrollmentRepo.UpdateVersioned(tx, e)
		if util.KindOf(err) == util.KindConflict {
			// 并发方已写过，过期与否下次读时再判
			return nil
		}
		return err
	})
}

// GetEnrollment 读报名详情，顺带做惰性过期判定
func (s *EnrollmentService) GetEnrollment(actorID, enrollmentID uint, actorRole model.UserRole) (*model.Enrollment, error) {
	e, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		return nil, util.NotFoundErr("enrollment")
	}
	if e.UserID != actorID && actorRole != model.Admin && actorRole != model.Instructor {
		return nil, util.ForbiddenErr("not your enrollment")
	}
	if s.expireIfDue(e, time.Now()) {
		if err := s.persistExpiry(e); err != nil {
			logger.Log.Warn("expiry persist failed", zap.Uint("enrollmentId", e.ID), zap.Error(err))
		}
	}
	return e, nil
}

func (s *EnrollmentService) ListUserEnrollments(userID uint) ([]model.Enrollment, error) {
	es, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range es {
		s.expireIfDue(&es[i], now)
	}
	return es, nil
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
