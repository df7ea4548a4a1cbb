package service

import (
	"testing"

	"lms_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCourseCompletionRequiresFullProgress(t *testing.T) {
	course := &model.Course{CompletionCriteria: model.CriteriaAllModules}
	res := EvaluateCourseCompletion(course, 99.9, nil)
	assert.False(t, res.IsComplete)
	assert.NotEmpty(t, res.Reason)
}

func TestEvaluateCourseCompletionScoreGate(t *testing.T) {
	course := &model.Course{
		CompletionCriteria: model.CriteriaAllModules,
		MinimumScore:       70,
		Modules: []model.CourseModule{
			{BaseModel: model.BaseModel{ID: 1}, Title: "Basics", QuizRequired: true},
			{BaseModel: model.BaseModel{ID: 2}, Title: "Extras", QuizRequired: false},
		},
	}

	// 必修测验模块低于及格线
	res := EvaluateCourseCompletion(course, 100, map[uint]float64{1: 65})
	assert.False(t, res.IsComplete)

	// 不带测验的模块成绩不参与判定
	res = EvaluateCourseCompletion(course, 100, map[uint]float64{1: 70, 2: 0})
	assert.True(t, res.IsComplete)
}

func pathWith(criteria model.PathCriteria, courses ...model.LearningPathCourse) *model.LearningPath {
	return &model.LearningPath{CompletionCriteria: criteria, Courses: courses}
}

func enrolled(courseID uint, status model.EnrollmentStatus) model.Enrollment {
	return model.Enrollment{CourseID: courseID, Status: status}
}

func TestEvaluateLearningPathAllCourses(t *testing.T) {
	path := pathWith(model.CriteriaAllCourses,
		model.LearningPathCourse{CourseID: 1},
		model.LearningPathCourse{CourseID: 2},
	)

	res := EvaluateLearningPathCompletion(path, []model.Enrollment{
		enrolled(1, model.EnrollCompleted),
		enrolled(2, model.EnrollInProgress),
	})
	assert.False(t, res.IsComplete)

	res = EvaluateLearningPathCompletion(path, []model.Enrollment{
		enrolled(1, model.EnrollCompleted),
		enrolled(2, model.EnrollCompleted),
	})
	assert.True(t, res.IsComplete)
}

func TestEvaluateLearningPathKeyCourses(t *testing.T) {
	// 关键课程 A(1) 和 C(3)，B(2) 不是关键
	path := pathWith(model.CriteriaKeyCourses,
		model.LearningPathCourse{CourseID: 1, IsKey: true},
		model.LearningPathCourse{CourseID: 2},
		model.LearningPathCourse{CourseID: 3, IsKey: true},
	)

	// 只完成了 A 和 B
	res := EvaluateLearningPathCompletion(path, []model.Enrollment{
		enrolled(1, model.EnrollCompleted),
		enrolled(2, model.EnrollCompleted),
	})
	assert.False(t, res.IsComplete)

	// A 和 C 完成即可，B 未报名也无妨
	res = EvaluateLearningPathCompletion(path, []model.Enrollment{
		enrolled(1, model.EnrollCompleted),
		enrolled(3, model.EnrollCompleted),
	})
	assert.True(t, res.IsComplete)
}

func TestEvaluateLearningPathEdgeCases(t *testing.T) {
	// 空路径永远不算完成
	res := EvaluateLearningPathCompletion(pathWith(model.CriteriaAllCourses), nil)
	assert.False(t, res.IsComplete)

	// 未报名任何课程是正常的未完成，不是错误
	path := pathWith(model.CriteriaAllCourses, model.LearningPathCourse{CourseID: 1})
	res = EvaluateLearningPathCompletion(path, nil)
	assert.False(t, res.IsComplete)
}
