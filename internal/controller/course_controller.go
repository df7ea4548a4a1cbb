package controller

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseController struct {
	CourseService *service.CourseService
	Storage       *service.StorageService
}

func NewCourseController(courseService *service.CourseService, storage *service.StorageService) *CourseController {
	return &CourseController{CourseService: courseService, Storage: storage}
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 讲师创建课程，初始为草稿状态
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateCourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(claims.UserID, req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表
// @Description 学员只看到已发布的课程，讲师和管理员可看全部
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	publishedOnly := claims.Role == model.Student
	courses, total, err := c.CourseService.ListCourses(publishedOnly, page, limit)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courses": courses, "total": total, "page": page})
}

// GetCourse godoc
// @Summary 课程详情
// @Description 课程及其模块与内容，学员看不到未发布课程
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.CourseService.GetCourse(uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	if !course.Published && claims.Role == model.Student {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Description 更新课程基本信息，仅讲师本人或管理员
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.UpdateCourseRequest true "更新字段"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.UpdateCourse(claims.UserID, claims.Role, uint(id), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// Publish godoc
// @Summary 发布课程
// @Description 发布后学员方可报名，空课程不允许发布
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "Success"
// @Failure 403 {object} util.Response "无权限"
// @Failure 409 {object} util.Response "状态不允许"
// @Router /api/courses/{id}/publish [post]
func (c *CourseController) Publish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.CourseService.Publish(claims.UserID, claims.Role, uint(id))
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// AddModule godoc
// @Summary 添加模块
// @Description 向课程添加模块，Order 在课程内唯一
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.AddModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule} "创建成功"
// @Router /api/courses/{id}/modules [post]
func (c *CourseController) AddModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.AddModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.CourseService.AddModule(claims.UserID, claims.Role, uint(id), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// AddContent godoc
// @Summary 添加内容
// @Description 向模块添加学习内容，类型必填字段在服务端校验
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "模块ID"
// @Param   body body service.AddContentRequest true "内容信息"
// @Success 201 {object} util.Response{data=model.Content} "创建成功"
// @Router /api/modules/{id}/contents [post]
func (c *CourseController) AddContent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid module id")
		return
	}

	var req service.AddContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, err := c.CourseService.AddContent(claims.UserID, claims.Role, uint(id), req)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, created)
}

// AttachQuiz godoc
// @Summary 配置测验
// @Description 在 quiz 类型内容上挂测验定义，一个内容一份测验
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "内容ID"
// @Param   body body model.Quiz true "测验定义"
// @Success 201 {object} util.Response{data=model.Quiz} "创建成功"
// @Router /api/contents/{id}/quiz [post]
func (c *CourseController) AttachQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid content id")
		return
	}

	var quiz model.Quiz
	if err := ctx.ShouldBindJSON(&quiz); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, err := c.CourseService.AttachQuiz(claims.UserID, claims.Role, uint(id), &quiz)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, created)
}

// AttachAssignment godoc
// @Summary 配置作业
// @Description 在 assignment 类型内容上挂作业定义
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "内容ID"
// @Param   body body model.Assignment true "作业定义"
// @Success 201 {object} util.Response{data=model.Assignment} "创建成功"
// @Router /api/contents/{id}/assignment [post]
func (c *CourseController) AttachAssignment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid content id")
		return
	}

	var a model.Assignment
	if err := ctx.ShouldBindJSON(&a); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, err := c.CourseService.AttachAssignment(claims.UserID, claims.Role, uint(id), &a)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, created)
}

// UploadVideo godoc
// @Summary 上传课程视频
// @Description 上传视频文件到对象存储，并用 ffprobe 读出时长供内容创建使用
// @Tags 课程
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "视频文件"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Router /api/contents/video/upload [post]
func (c *CourseController) UploadVideo(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	// 先落临时文件做探测，再上传对象存储
	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.InternalServerError(ctx)
		return
	}
	defer os.Remove(tmpPath)

	info, err := util.GetVideoInfo(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "invalid video file")
		return
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	defer src.Close()

	filename := fmt.Sprintf("videos/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	url, err := c.Storage.Upload(ctx, filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	util.Created(ctx, gin.H{
		"url":      url,
		"duration": info.Duration,
		"width":    info.Width,
		"height":   info.Height,
	})
}
