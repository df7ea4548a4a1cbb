package controller

import (
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// swagger:model QuizSubmitRequest
type QuizSubmitRequest struct {
	ContentID uint                  `json:"contentId" binding:"required"`
	Answers   []service.AnswerInput `json:"answers" binding:"required"`
	TimeSpent int                   `json:"timeSpent"`
}

// SubmitQuiz godoc
// @Summary 提交测验
// @Description 自动评分，作答只追加；通过后自动标记内容完成
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body QuizSubmitRequest true "作答"
// @Success 200 {object} util.Response{data=model.QuizAttempt} "Success"
// @Failure 404 {object} util.Response "测验不存在"
// @Failure 409 {object} util.Response "次数用尽"
// @Router /api/quiz/submit [post]
func (c *GradingController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req QuizSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.GradingService.SubmitQuiz(claims.UserID, req.ContentID, service.QuizSubmission{
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ListQuizAttempts godoc
// @Summary 作答历史
// @Description 当前用户在某个测验内容上的全部作答
// @Tags 评分
// @Produce  json
// @Security ApiKeyAuth
// @Param   contentId query int true "内容ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt} "Success"
// @Router /api/quiz/attempts [get]
func (c *GradingController) ListQuizAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	contentID, err := strconv.ParseUint(ctx.Query("contentId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "contentId parameter is required")
		return
	}

	attempts, err := c.GradingService.ListQuizAttempts(claims.UserID, uint(contentID))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// SubmitAssignment godoc
// @Summary 提交作业
// @Description 一人一份，迟交在提交时定格；进度在教师判分通过后回写
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "内容ID"
// @Param   body body service.SubmissionRequest true "提交内容"
// @Success 201 {object} util.Response{data=model.AssignmentSubmission} "创建成功"
// @Failure 409 {object} util.Response "已提交过"
// @Router /api/assignments/{id}/submit [post]
func (c *GradingController) SubmitAssignment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	contentID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid content id")
		return
	}

	var req service.SubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.GradingService.SubmitAssignment(claims.UserID, uint(contentID), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// GradeSubmission godoc
// @Summary 作业评分
// @Description 课程讲师或管理员评分，允许改分；及格后回写学员进度
// @Tags 评分
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   submissionId path int true "提交ID"
// @Param   body body service.GradeRequest true "分数与反馈"
// @Success 200 {object} util.Response{data=model.AssignmentSubmission} "Success"
// @Failure 403 {object} util.Response "非课程讲师"
// @Router /api/assignments/submissions/{submissionId}/grade [post]
func (c *GradingController) GradeSubmission(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	submissionID, err := strconv.ParseUint(ctx.Param("submissionId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.GradingService.GradeSubmission(claims.UserID, claims.Role, uint(submissionID), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
