package service

import (
	"fmt"

	"lms_backend/internal/model"
)

// CompletionResult “尚未完成”是正常结果而不是错误
type CompletionResult struct {
	IsComplete bool   `json:"isComplete"`
	Reason     string `json:"reason,omitempty"`
}

// EvaluateCourseCompletion 课程完成判定。
// all_modules：课程进度必须到 100，且每个带必修测验的模块最好成绩不低于课程及格线。
// 进度到 100 只是必要条件，最终状态切换由状态机执行。
func EvaluateCourseCompletion(course *model.Course, progress float64, bestScores map[uint]float64) CompletionResult {
	if progress < 100 {
		return CompletionResult{Reason: fmt.Sprintf("course progress at %.1f%%", progress)}
	}

	switch course.CompletionCriteria {
	case model.CriteriaAllModules, "":
		for _, m := range course.Modules {
			if !m.QuizRequired {
				continue
			}
			if bestScores[m.ID] < course.MinimumScore {
				return CompletionResult{
					Reason: fmt.Sprintf("module %q best score %.1f below minimum %.1f",
						m.Title, bestScores[m.ID], course.MinimumScore),
				}
			}
		}
		return CompletionResult{IsComplete: true, Reason: "all modules completed"}
	default:
		return CompletionResult{Reason: fmt.Sprintf("unknown completion criteria %q", course.CompletionCriteria)}
	}
}

// EvaluateLearningPathCompletion 路径完成判定。
// all_courses 要求路径内每门课都有已完成的报名；key_courses 只看关键子集。
// 用户没报名或只报了一部分按未完成处理，不报错。
func EvaluateLearningPathCompletion(path *model.LearningPath, enrollments []model.Enrollment) CompletionResult {
	completed := make(map[uint]bool)
	for _, e := range enrollments {
		if e.Status == model.EnrollCompleted {
			completed[e.CourseID] = true
		}
	}

	var required []uint
	switch path.CompletionCriteria {
	case model.CriteriaKeyCourses:
		for _, pc := range path.Courses {
			if pc.IsKey {
				required = append(required, pc.CourseID)
			}
		}
	default: // all_courses
		for _, pc := range path.Courses {
			required = append(required, pc.CourseID)
		}
	}

	if len(required) == 0 {
		return CompletionResult{Reason: "path has no required courses"}
	}

	missing := 0
	for _, id := range required {
		if !completed[id] {
			missing++
		}
	}
	if missing > 0 {
		return CompletionResult{Reason: fmt.Sprintf("%d of %d required courses not completed", missing, len(required))}
	}
	return CompletionResult{IsComplete: true, Reason: "all required courses completed"}
}
