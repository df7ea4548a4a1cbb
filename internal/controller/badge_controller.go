package controller

import (
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BadgeController struct {
	BadgeService *service.BadgeService
}

func NewBadgeController(badgeService *service.BadgeService) *BadgeController {
	return &BadgeController{BadgeService: badgeService}
}

// ListBadges godoc
// @Summary 徽章目录
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Badge} "Success"
// @Router /api/badges [get]
func (c *BadgeController) ListBadges(ctx *gin.Context) {
	badges, err := c.BadgeService.ListBadges()
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// CreateBadge godoc
// @Summary 创建徽章
// @Description 管理员创建徽章定义，类型条件字段必填
// @Tags 徽章
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body model.Badge true "徽章定义"
// @Success 201 {object} util.Response{data=model.Badge} "创建成功"
// @Router /api/badges [post]
func (c *BadgeController) CreateBadge(ctx *gin.Context) {
	var badge model.Badge
	if err := ctx.ShouldBindJSON(&badge); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.BadgeService.CreateBadge(&badge); err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, badge)
}

// CheckEligibility godoc
// @Summary 徽章资格清点
// @Description 当前用户对所有未持有徽章的资格评估，可领取的排在前面
// @Tags 徽章
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.BadgeEligibility} "Success"
// @Router /api/badges/check-eligibility [get]
func (c *BadgeController) CheckEligibility(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	result, err := c.BadgeService.CheckEligibility(claims.UserID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// swagger:model AwardBadgeRequest
type AwardBadgeRequest struct {
	EnrollmentID uint `json:"enrollmentId" binding:"required"`
	BadgeID      uint `json:"badgeId" binding:"required"`
}

// AwardBadge godoc
// @Summary 手动发放徽章
// @Description 管理员把徽章发到指定报名上，重复发放静默跳过
// @Tags 徽章
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AwardBadgeRequest true "发放信息"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/badges/award [post]
func (c *BadgeController) AwardBadge(ctx *gin.Context) {
	var req AwardBadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	awarded, err := c.BadgeService.Award(req.EnrollmentID, req.BadgeID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"awarded": awarded})
}
