package controller

import (
	"strconv"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 报名已发布课程，一人一课一条记录，重复报名返回409
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.EnrollRequest false "报名选项"
// @Success 201 {object} util.Response{data=model.Enrollment} "创建成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 409 {object} util.Response "重复报名或课程未发布"
// @Router /api/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.EnrollRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	e, err := c.EnrollmentService.Enroll(claims.UserID, uint(courseID), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, e)
}

// ListEnrollments godoc
// @Summary 我的报名
// @Description 当前用户的全部报名及进度概览
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment} "Success"
// @Router /api/enrollments [get]
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	es, err := c.EnrollmentService.ListUserEnrollments(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, es)
}

// GetProgress godoc
// @Summary 报名进度详情
// @Description 报名的模块/内容级进度明细，读取时惰性判定过期
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 403 {object} util.Response "非本人报名"
// @Failure 404 {object} util.Response "报名不存在"
// @Router /api/enrollments/{id}/progress [get]
func (c *EnrollmentController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid enrollment id")
		return
	}

	e, err := c.EnrollmentService.GetEnrollment(claims.UserID, uint(id), claims.Role)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// TrackProgress godoc
// @Summary 上报内容进度
// @Description 视频心跳、文档阅读等进度上报；进度单调不减，完成单向
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Param   contentId path int true "内容ID"
// @Param   body body service.ContentProgressUpdate true "进度"
// @Success 200 {object} util.Response{data=model.Enrollment} "Success"
// @Failure 400 {object} util.Response "非法进度值"
// @Failure 409 {object} util.Response "报名已过期或并发冲突"
// @Router /api/enrollments/{id}/content/{contentId}/progress [post]
func (c *EnrollmentController) TrackProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid enrollment id")
		return
	}
	contentID, err := strconv.ParseUint(ctx.Param("contentId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid content id")
		return
	}

	var update service.ContentProgressUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	e, err := c.EnrollmentService.TrackContentProgress(claims.UserID, uint(id), uint(contentID), update)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, e)
}
