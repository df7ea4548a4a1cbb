package service

import (
	"sort"
	"strings"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// GradingService 测验自动评分与作业人工评分。
// 评分通过后经 EnrollmentService.ApplyContentCompletion 回写进度，
// 与进度上报走同一条聚合路径。
type GradingService struct {
	QuizRepo       *repository.QuizRepository
	AssignmentRepo *repository.AssignmentRepository
	CourseRepo     *repository.CourseRepository
	Enrollments    *EnrollmentService
	Cfg            *config.Config
}

func NewGradingService(
	quizRepo *repository.QuizRepository,
	assignmentRepo *repository.AssignmentRepository,
	courseRepo *repository.CourseRepository,
	enrollments *EnrollmentService,
	cfg *config.Config,
) *GradingService {
	return &GradingService{
		QuizRepo:       quizRepo,
		AssignmentRepo: assignmentRepo,
		CourseRepo:     courseRepo,
		Enrollments:    enrollments,
		Cfg:            cfg,
	}
}

// AnswerInput 学员对单题的作答
type AnswerInput struct {
	QuestionID      uint   `json:"questionId" binding:"required"`
	SelectedOptions []int  `json:"selectedOptions,omitempty"`
	Answer          string `json:"answer,omitempty"`
}

type QuizSubmission struct {
	Answers   []AnswerInput `json:"answers" binding:"required"`
	TimeSpent int           `json:"timeSpent"` // 秒
}

// SubmitQuiz 提交测验作答并自动评分。
// 作答记录只追加；通过后标记对应内容完成，未通过也会更新模块最好成绩。
func (s *GradingService) SubmitQuiz(userID, contentID uint, sub QuizSubmission) (*model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByContentID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("quiz")
	}

	attempts, err := s.QuizRepo.CountAttempts(quiz.ID, userID)
	if err != nil {
		return nil, err
	}
	if quiz.MaxAttempts > 0 && attempts >= int64(quiz.MaxAttempts) {
		return nil, util.ErrAttemptsExceeded
	}

	score, responses := gradeQuiz(quiz, sub.Answers)
	passed := score >= quiz.PassingScore

	attempt := &model.QuizAttempt{
		QuizID:      quiz.ID,
		UserID:      userID,
		Score:       score,
		Passed:      passed,
		TimeSpent:   sub.TimeSpent,
		Answers:     responses,
		SubmittedAt: time.Now(),
	}
	if err := s.QuizRepo.AppendAttempt(attempt); err != nil {
		return nil, err
	}

	facts := CompletionFacts{
		QuizScore:    &score,
		CountAttempt: true,
	}
	if passed {
		facts.Update.MarkCompleted = true
		facts.Update.TimeSpentDelta = sub.TimeSpent
	} else if s.Cfg.Completion.CountFailedQuizTime {
		facts.Update.TimeSpentDelta = sub.TimeSpent
	}

	if _, err := s.Enrollments.ApplyContentCompletion(userID, contentID, facts); err != nil {
		// 作答已入库，进度回写失败只记日志，下一次通过会再触发
		logger.Log.Error("quiz progress write-back failed",
			zap.Uint("userId", userID), zap.Uint("contentId", contentID), zap.Error(err))
	}
	return attempt, nil
}

// gradeQuiz 按题型判分：客观题要求选项集合完全一致，简答题忽略大小写与首尾空白。
// 总分为零的测验直接得 0，避免除零。
func gradeQuiz(quiz *model.Quiz, answers []AnswerInput) (float64, []model.QuestionResponse) {
	byQuestion := make(map[uint]AnswerInput, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	totalPoints := 0.0
	earnedPoints := 0.0
	responses := make([]model.QuestionResponse, 0, len(quiz.Questions))

	for _, q := range quiz.Questions {
		totalPoints += q.Points
		a := byQuestion[q.ID]

		correct := false
		switch q.Type {
		case model.QuestionShortAnswer:
			correct = strings.EqualFold(
				strings.TrimSpace(a.Answer), strings.TrimSpace(q.CorrectAnswer))
		default: // multiple_choice / true_false
			correct = sameOptionSet(a.SelectedOptions, q.CorrectOptions)
		}

		earned := 0.0
		if correct {
			earned = q.Points
			earnedPoints += earned
		}
		responses = append(responses, model.QuestionResponse{
			QuestionID:      q.ID,
			SelectedOptions: a.SelectedOptions,
			Answer:          a.Answer,
			Earned:          earned,
			Correct:         correct,
		})
	}

	if totalPoints == 0 {
		return 0, responses
	}
	return 100 * earnedPoints / totalPoints, responses
}

func sameOptionSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return len(as) > 0
}

// ListQuizAttempts 学员查看自己的作答历史
func (s *GradingService) ListQuizAttempts(userID, contentID uint) ([]model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByContentID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("quiz")
	}
	return s.QuizRepo.ListAttempts(quiz.ID, userID)
}

type SubmissionRequest struct {
	Text    string `json:"text,omitempty"`
	FileURL string `json:"fileUrl,omitempty"`
	LinkURL string `json:"linkUrl,omitempty"`
}

// SubmitAssignment 作业提交。一人一份，迟交在提交时定格；
// 提交本身不动进度，进度在教师判分通过后才回写。
func (s *GradingService) SubmitAssignment(userID, contentID uint, req SubmissionRequest) (*model.AssignmentSubmission, error) {
	assignment, err := s.AssignmentRepo.FindByContentID(contentID)
	if err != nil {
		return nil, util.NotFoundErr("assignment")
	}

	if _, err := s.AssignmentRepo.FindSubmission(assignment.ID, userID); err == nil {
		return nil, util.InvalidStateErr("assignment already submitted")
	}

	sub := &model.AssignmentSubmission{
		AssignmentID: assignment.ID,
		UserID:       userID,
		Status:       model.SubmissionPending,
		SubmittedAt:  time.Now(),
	}
	switch assignment.SubmissionType {
	case model.SubmissionText:
		if req.Text == "" {
			return nil, util.ValidationErr("text submission requires text")
		}
		sub.Text = req.Text
	case model.SubmissionFile:
		if req.FileURL == "" {
			return nil, util.ValidationErr("file submission requires fileUrl")
		}
		sub.FileURL = req.FileURL
	case model.SubmissionLink:
		if req.LinkURL == "" {
			return nil, util.ValidationErr("link submission requires linkUrl")
		}
		sub.LinkURL = req.LinkURL
	}
	if assignment.DueDate != nil && sub.SubmittedAt.After(*assignment.DueDate) {
		sub.IsLate = true
	}

	if err := s.AssignmentRepo.CreateSubmission(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

type GradeRequest struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback,omitempty"`
	Rejected bool    `json:"rejected,omitempty"`
}

// GradeSubmission 教师评分。只有课程讲师或管理员可评；
// 重复评分允许（改分），但迟交标记与提交内容不可改。
// 达到及格分时把作业内容标记完成并回写学员进度。
func (s *GradingService) GradeSubmission(graderID uint, graderRole model.UserRole, submissionID uint, req GradeRequest) (*model.AssignmentSubmission, error) {
	sub, err := s.AssignmentRepo.FindSubmissionByID(submissionID)
	if err != nil {
		return nil, util.NotFoundErr("submission")
	}
	assignment, err := s.AssignmentRepo.FindByID(sub.AssignmentID)
	if err != nil {
		return nil, util.NotFoundErr("assignment")
	}
	content, err := s.CourseRepo.FindContentByID(assignment.ContentID)
	if err != nil {
		return nil, util.NotFoundErr("content")
	}
	mod, err := s.CourseRepo.FindModuleByID(content.ModuleID)
	if err != nil {
		return nil, util.NotFoundErr("module")
	}
	course, err := s.CourseRepo.FindByID(mod.CourseID)
	if err != nil {
		return nil, util.NotFoundErr("course")
	}

	if graderRole != model.Admin && course.InstructorID != graderID {
		return nil, util.ForbiddenErr("only the course instructor or an admin may grade")
	}
	if req.Score < 0 || req.Score > assignment.TotalPoints {
		return nil, util.ValidationErr("score out of range")
	}

	now := time.Now()
	sub.Score = req.Score
	sub.Feedback = req.Feedback
	sub.GradedBy = graderID
	sub.GradedAt = &now
	if req.Rejected {
		sub.Status = model.SubmissionRejected
	} else {
		sub.Status = model.SubmissionGraded
	}

	if err := s.AssignmentRepo.UpdateGrade(sub); err != nil {
		return nil, err
	}

	if sub.Status == model.SubmissionGraded && sub.Score >= assignment.PassingPoints {
		facts := CompletionFacts{Update: ContentProgressUpdate{MarkCompleted: true}}
		if _, err := s.Enrollments.ApplyContentCompletion(sub.UserID, content.ID, facts); err != nil {
			logger.Log.Error("assignment progress write-back failed",
				zap.Uint("userId", sub.UserID), zap.Uint("contentId", content.ID), zap.Error(err))
		}
	}
	return sub, nil
}
