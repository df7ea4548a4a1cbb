package service

import (
	"fmt"
	"sort"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BadgeService 徽章资格清点。
// 只读评估：CheckEligibility 绝不发放，发放走报名提交事务或管理员手动接口。
type BadgeService struct {
	BadgeRepo      *repository.BadgeRepository
	EnrollmentRepo *repository.EnrollmentRepository
	PathRepo       *repository.LearningPathRepository
	Sink           NotificationSink
	DB             *gorm.DB
}

func NewBadgeService(
	badgeRepo *repository.BadgeRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	pathRepo *repository.LearningPathRepository,
	sink NotificationSink,
	db *gorm.DB,
) *BadgeService {
	return &BadgeService{
		BadgeRepo:      badgeRepo,
		EnrollmentRepo: enrollmentRepo,
		PathRepo:       pathRepo,
		Sink:           sink,
		DB:             db,
	}
}

// BadgeEligibility 一个未持有徽章的资格评估结果
type BadgeEligibility struct {
	Badge    model.Badge `json:"badge"`
	Eligible bool        `json:"eligible"`
	Progress float64     `json:"progress"` // 0-100，距离达成的进度
	Reason   string      `json:"reason,omitempty"`
}

// CheckEligibility 清点用户对所有未持有徽章的资格。
// 结果排序：可领取的在前，其余按进度从高到低。
func (s *BadgeService) CheckEligibility(userID uint) ([]BadgeEligibility, error) {
	held, err := s.EnrollmentRepo.HeldBadgeIDs(userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.BadgeRepo.List()
	if err != nil {
		return nil, err
	}
	enrollments, err := s.EnrollmentRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	completedCourses := make(map[uint]bool)
	completedCount := 0
	byCourse := make(map[uint]*model.Enrollment, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		byCourse[e.CourseID] = e
		if e.Status == model.EnrollCompleted {
			completedCourses[e.CourseID] = true
			completedCount++
		}
	}

	out := make([]BadgeEligibility, 0, len(badges))
	for _, b := range badges {
		if held[b.ID] {
			continue
		}
		el := BadgeEligibility{Badge: b}

		switch b.Type {
		case model.BadgeCourseCompletion:
			if b.CourseID == nil {
				el.Reason = "badge has no course bound"
				break
			}
			if e, ok := byCourse[*b.CourseID]; ok {
				el.Progress = e.ProgressPercentage
				el.Eligible = e.Status == model.EnrollCompleted
				if !el.Eligible {
					el.Reason = fmt.Sprintf("course at %.1f%%", e.ProgressPercentage)
				}
			} else {
				el.Reason = "not enrolled in the course"
			}

		case model.BadgeLearningPath:
			if b.LearningPathID == nil {
				el.Reason = "badge has no learning path bound"
				break
			}
			path, err := s.PathRepo.FindByID(*b.LearningPathID)
			if err != nil {
				el.Reason = "learning path not found"
				break
			}
			res := EvaluateLearningPathCompletion(path, enrollments)
			el.Eligible = res.IsComplete
			el.Reason = res.Reason
			el.Progress = pathProgress(path, completedCourses)

		case model.BadgeEngagement:
			if b.RequiredCount <= 0 {
				el.Reason = "badge has no threshold"
				break
			}
			el.Eligible = completedCount >= b.RequiredCount
			el.Progress = 100 * float64(completedCount) / float64(b.RequiredCount)
			if el.Progress > 100 {
				el.Progress = 100
			}
			if !el.Eligible {
				el.Reason = fmt.Sprintf("%d of %d courses completed", completedCount, b.RequiredCount)
			}

		default:
			// skill_mastery / achievement / special 只能人工发放
			el.Reason = "awarded manually"
		}

		out = append(out, el)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Eligible != out[j].Eligible {
			return out[i].Eligible
		}
		return out[i].Progress > out[j].Progress
	})
	return out, nil
}

// pathProgress 已完成必修课程占比
func pathProgress(path *model.LearningPath, completed map[uint]bool) float64 {
	total := 0
	done := 0
	for _, pc := range path.Courses {
		if path.CompletionCriteria == model.CriteriaKeyCourses && !pc.IsKey {
			continue
		}
		total++
		if completed[pc.CourseID] {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(done) / float64(total)
}

// Award 把徽章发到指定报名上。唯一索引去重，重复发放静默跳过。
func (s *BadgeService) Award(enrollmentID, badgeID uint) (bool, error) {
	badge, err := s.BadgeRepo.FindByID(badgeID)
	if err != nil {
		return false, util.NotFoundErr("badge")
	}
	e, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		return false, util.NotFoundErr("enrollment")
	}

	held, err := s.EnrollmentRepo.HeldBadgeIDs(e.UserID)
	if err != nil {
		return false, err
	}
	if held[badge.ID] {
		return false, nil
	}

	var added bool
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		added, err = s.EnrollmentRepo.AddBadge(tx, e.ID, badge.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}

	monitoring.BadgesAwarded.WithLabelValues(string(badge.Type)).Inc()
	if s.Sink != nil {
		if err := s.Sink.Send(e.UserID, "Badge earned",
			"You earned the badge "+badge.Name, "badge",
			map[string]string{"badgeId": itoa(badge.ID)}); err != nil {
			logger.Log.Warn("badge notification failed", zap.Error(err))
		}
	}
	return true, nil
}

func (s *BadgeService) CreateBadge(b *model.Badge) error {
	switch b.Type {
	case model.BadgeCourseCompletion:
		if b.CourseID == nil {
			return util.ValidationErr("course_completion badge requires courseId")
		}
	case model.BadgeLearningPath:
		if b.LearningPathID == nil {
			return util.ValidationErr("learning_path badge requires learningPathId")
		}
	case model.BadgeSkillMastery:
		if b.SkillID == nil {
			return util.ValidationErr("skill_mastery badge requires skillId")
		}
	case model.BadgeEngagement:
		if b.RequiredCount <= 0 {
			return util.ValidationErr("engagement badge requires requiredCount")
		}
	case model.BadgeAchievement, model.BadgeSpecial:
		if b.Requirements == "" {
			return util.ValidationErr("badge requires requirements text")
		}
	default:
		return util.ValidationErr("unknown badge type")
	}
	return s.BadgeRepo.Create(b)
}

func (s *BadgeService) ListBadges() ([]model.Badge, error) {
	return s.BadgeRepo.List()
}
