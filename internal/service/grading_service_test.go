package service

import (
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quizCourse 一个模块：一篇必修文档 + 一个必修测验内容，模块要求测验
func quizCourse(t *testing.T, env *testEnv, instructorID uint, passingScore float64, maxAttempts int) (*model.Course, *model.Content, *model.Quiz) {
	t.Helper()
	course := &model.Course{
		Title:              "Quiz Course",
		InstructorID:       instructorID,
		Published:          true,
		CompletionCriteria: model.CriteriaAllModules,
		MinimumScore:       passingScore,
		Modules: []model.CourseModule{
			{
				Title:        "Module 1",
				Order:        0,
				QuizRequired: true,
				Contents: []model.Content{
					{Title: "Reading", Type: model.ContentDocument, Order: 0, IsRequired: true, DocumentURL: "https://docs.example/r"},
					{Title: "Check", Type: model.ContentQuiz, Order: 1, IsRequired: true},
				},
			},
		},
	}
	require.NoError(t, env.courses.Create(course))
	loaded, err := env.courses.FindByID(course.ID)
	require.NoError(t, err)

	quizContent := loaded.Modules[0].Contents[1]
	quiz := &model.Quiz{
		ContentID:    quizContent.ID,
		Title:        "Module check",
		PassingScore: passingScore,
		MaxAttempts:  maxAttempts,
		Questions: []model.QuizQuestion{
			{Type: model.QuestionMultipleChoice, Text: "Pick 1 and 3", Points: 2, Order: 0,
				Options: []string{"a", "b", "c"}, CorrectOptions: []int{0, 2}},
			{Type: model.QuestionTrueFalse, Text: "Sky is blue", Points: 1, Order: 1,
				Options: []string{"True", "False"}, CorrectOptions: []int{0}},
			{Type: model.QuestionShortAnswer, Text: "Capital of France", Points: 1, Order: 2,
				CorrectAnswer: "Paris"},
		},
	}
	require.NoError(t, env.quizzes.Create(quiz))
	return loaded, &quizContent, quiz
}

func TestQuizGrading(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, content, quiz := quizCourse(t, env, instructor.ID, 70, 3)

	_, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	// 多选题选项集合必须完全一致；简答题大小写不敏感
	attempt, err := env.grading.SubmitQuiz(student.ID, content.ID, QuizSubmission{
		Answers: []AnswerInput{
			{QuestionID: quiz.Questions[0].ID, SelectedOptions: []int{0}}, // 少选不得分
			{QuestionID: quiz.Questions[1].ID, SelectedOptions: []int{0}},
			{QuestionID: quiz.Questions[2].ID, Answer: "  paris "},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, attempt.Score, 0.01) // 2/4 points
	assert.False(t, attempt.Passed)

	attempt, err = env.grading.SubmitQuiz(student.ID, content.ID, QuizSubmission{
		Answers: []AnswerInput{
			{QuestionID: quiz.Questions[0].ID, SelectedOptions: []int{2, 0}}, // 顺序无关
			{QuestionID: quiz.Questions[1].ID, SelectedOptions: []int{0}},
			{QuestionID: quiz.Questions[2].ID, Answer: "PARIS"},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, attempt.Score, 0.01)
	assert.True(t, attempt.Passed)

	// 作答只追加
	attempts, err := env.grading.ListQuizAttempts(student.ID, content.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestQuizAttemptsExceeded(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, content, quiz := quizCourse(t, env, instructor.ID, 70, 2)

	_, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	wrong := QuizSubmission{Answers: []AnswerInput{{QuestionID: quiz.Questions[0].ID}}}
	for i := 0; i < 2; i++ {
		_, err := env.grading.SubmitQuiz(student.ID, content.ID, wrong)
		require.NoError(t, err)
	}

	_, err = env.grading.SubmitQuiz(student.ID, content.ID, wrong)
	assert.ErrorIs(t, err, util.ErrAttemptsExceeded)
}

func TestQuizPassDrivesCourseCompletion(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, content, quiz := quizCourse(t, env, instructor.ID, 70, 3)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	// 先读完文档
	reading := course.Modules[0].Contents[0]
	_, err = env.enrollment.TrackContentProgress(student.ID, e.ID, reading.ID,
		ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)

	// 挂科：进度不动，最好成绩与尝试次数更新
	_, err = env.grading.SubmitQuiz(student.ID, content.ID, QuizSubmission{
		Answers:   []AnswerInput{{QuestionID: quiz.Questions[1].ID, SelectedOptions: []int{0}}},
		TimeSpent: 60,
	})
	require.NoError(t, err)

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollInProgress, persisted.Status)
	require.Len(t, persisted.ModuleProgress, 1)
	assert.InDelta(t, 25.0, persisted.ModuleProgress[0].BestScore, 0.01)
	assert.Equal(t, 1, persisted.ModuleProgress[0].Attempts)

	// 通过：测验内容完成，模块成绩过线，课程完成
	_, err = env.grading.SubmitQuiz(student.ID, content.ID, QuizSubmission{
		Answers: []AnswerInput{
			{QuestionID: quiz.Questions[0].ID, SelectedOptions: []int{0, 2}},
			{QuestionID: quiz.Questions[1].ID, SelectedOptions: []int{0}},
			{QuestionID: quiz.Questions[2].ID, Answer: "Paris"},
		},
	})
	require.NoError(t, err)

	persisted, err = env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollCompleted, persisted.Status)
	assert.Equal(t, 100.0, persisted.ProgressPercentage)
	assert.True(t, persisted.CertificateIssued)
}

func TestQuizFailedTimeCountingFollowsPolicy(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Completion.CountFailedQuizTime = false
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course, content, quiz := quizCourse(t, env, instructor.ID, 70, 5)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	_, err = env.grading.SubmitQuiz(student.ID, content.ID, QuizSubmission{
		Answers:   []AnswerInput{{QuestionID: quiz.Questions[1].ID}},
		TimeSpent: 120,
	})
	require.NoError(t, err)

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	for _, cp := range persisted.ContentProgress {
		if cp.ContentID == content.ID {
			assert.Equal(t, 0, cp.TimeSpent) // 挂科用时按策略不计
		}
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)

	due := time.Now().Add(-time.Hour)
	course := &model.Course{
		Title:        "Essay Course",
		InstructorID: instructor.ID,
		Published:    true,
		Modules: []model.CourseModule{
			{
				Title: "Writing",
				Order: 0,
				Contents: []model.Content{
					{Title: "Essay", Type: model.ContentAssignment, Order: 0, IsRequired: true},
				},
			},
		},
	}
	require.NoError(t, env.courses.Create(course))
	loaded, err := env.courses.FindByID(course.ID)
	require.NoError(t, err)
	content := loaded.Modules[0].Contents[0]

	assignment := &model.Assignment{
		ContentID:      content.ID,
		Title:          "Essay",
		SubmissionType: model.SubmissionText,
		DueDate:        &due,
		TotalPoints:    100,
		PassingPoints:  60,
	}
	require.NoError(t, env.assignments.Create(assignment))

	e, err := env.enrollment.Enroll(student.ID, loaded.ID, EnrollRequest{})
	require.NoError(t, err)

	// 提交类型校验
	_, err = env.grading.SubmitAssignment(student.ID, content.ID, SubmissionRequest{FileURL: "x"})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	sub, err := env.grading.SubmitAssignment(student.ID, content.ID, SubmissionRequest{Text: "my essay"})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.True(t, sub.IsLate) // 截止已过，提交时定格

	// 一人一份
	_, err = env.grading.SubmitAssignment(student.ID, content.ID, SubmissionRequest{Text: "again"})
	assert.Equal(t, util.KindInvalidState, util.KindOf(err))

	// 非课程讲师不能评分
	outsider := env.createUser(t, model.Instructor)
	_, err = env.grading.GradeSubmission(outsider.ID, model.Instructor, sub.ID, GradeRequest{Score: 80})
	assert.Equal(t, util.KindForbidden, util.KindOf(err))

	// 讲师及格评分推动学员课程完成
	graded, err := env.grading.GradeSubmission(instructor.ID, model.Instructor, sub.ID, GradeRequest{Score: 80, Feedback: "well done"})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionGraded, graded.Status)

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollCompleted, persisted.Status)

	// 改分允许，迟交标记不被改写
	regraded, err := env.grading.GradeSubmission(instructor.ID, model.Instructor, sub.ID, GradeRequest{Score: 90})
	require.NoError(t, err)
	assert.Equal(t, 90.0, regraded.Score)

	stored, err := env.assignments.FindSubmissionByID(sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLate)
	assert.Equal(t, 90.0, stored.Score)
}

func TestGradeQuizZeroTotalPoints(t *testing.T) {
	quiz := &model.Quiz{Questions: []model.QuizQuestion{
		{BaseModel: model.BaseModel{ID: 1}, Type: model.QuestionShortAnswer, Points: 0, CorrectAnswer: "x"},
	}}
	score, responses := gradeQuiz(quiz, []AnswerInput{{QuestionID: 1, Answer: "x"}})
	assert.Equal(t, 0.0, score)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Correct)
}
