package controller

import (
	"strconv"
	"time"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningPathController struct {
	PathService *service.LearningPathService
}

func NewLearningPathController(pathService *service.LearningPathService) *LearningPathController {
	return &LearningPathController{PathService: pathService}
}

// CreatePath godoc
// @Summary 创建学习路径
// @Description 讲师/管理员创建路径，key_courses 策略要求至少一门关键课程
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreatePathRequest true "路径定义"
// @Success 201 {object} util.Response{data=model.LearningPath} "创建成功"
// @Router /api/learning-paths [post]
func (c *LearningPathController) CreatePath(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CreatePathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	path, err := c.PathService.CreatePath(claims.UserID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, path)
}

// ListPaths godoc
// @Summary 路径列表
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/learning-paths [get]
func (c *LearningPathController) ListPaths(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	paths, total, err := c.PathService.ListPaths(page, limit)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"paths": paths, "total": total, "page": page})
}

// GetPath godoc
// @Summary 路径详情
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "路径ID"
// @Success 200 {object} util.Response{data=model.LearningPath} "Success"
// @Failure 404 {object} util.Response "路径不存在"
// @Router /api/learning-paths/{id} [get]
func (c *LearningPathController) GetPath(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid path id")
		return
	}

	path, err := c.PathService.GetPath(uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// swagger:model PathEnrollRequest
type PathEnrollRequest struct {
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// EnrollPath godoc
// @Summary 报名学习路径
// @Description 把用户报进路径内的全部课程，已报名的课程跳过
// @Tags 学习路径
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "路径ID"
// @Param   body body PathEnrollRequest false "报名选项"
// @Success 200 {object} util.Response{data=model.LearningPath} "Success"
// @Failure 409 {object} util.Response "路径含未发布课程"
// @Router /api/learning-paths/{id}/enroll [post]
func (c *LearningPathController) EnrollPath(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid path id")
		return
	}

	var req PathEnrollRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	path, err := c.PathService.EnrollPath(claims.UserID, uint(id), req.DueDate)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// GetPathProgress godoc
// @Summary 路径进度
// @Description 当前用户在路径内逐门课程的进度与完成判定
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "路径ID"
// @Success 200 {object} util.Response{data=service.PathProgress} "Success"
// @Router /api/learning-paths/{id}/progress [get]
func (c *LearningPathController) GetPathProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid path id")
		return
	}

	progress, err := c.PathService.GetPathProgress(claims.UserID, uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// AwardBadges godoc
// @Summary 清点路径徽章
// @Description 对完成路径的用户补发完成徽章，可安全重跑
// @Tags 学习路径
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "路径ID"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/learning-paths/{id}/award-badges [post]
func (c *LearningPathController) AwardBadges(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid path id")
		return
	}

	awarded, err := c.PathService.AwardPathBadges(uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"awarded": awarded})
}
