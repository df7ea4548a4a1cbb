package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 课程目录
		authGroup.GET("/courses", c.course.ListCourses)
		authGroup.GET("/courses/:id", c.course.GetCourse)

		// 报名与进度
		authGroup.POST("/courses/:id/enroll", c.enrollment.Enroll)
		authGroup.GET("/enrollments", c.enrollment.ListEnrollments)
		authGroup.GET("/enrollments/:id/progress", c.enrollment.GetProgress)
		authGroup.POST("/enrollments/:id/content/:contentId/progress", c.enrollment.TrackProgress)

		// 评分
		authGroup.POST("/quiz/submit", c.grading.SubmitQuiz)
		authGroup.GET("/quiz/attempts", c.grading.ListQuizAttempts)
		authGroup.POST("/assignments/:id/submit", c.grading.SubmitAssignment)

		// 学习路径
		authGroup.GET("/learning-paths", c.learningPath.ListPaths)
		authGroup.GET("/learning-paths/:id", c.learningPath.GetPath)
		authGroup.POST("/learning-paths/:id/enroll", c.learningPath.EnrollPath)
		authGroup.GET("/learning-paths/:id/progress", c.learningPath.GetPathProgress)

		// 徽章与通知
		authGroup.GET("/badges", c.badge.ListBadges)
		authGroup.GET("/badges/check-eligibility", c.badge.CheckEligibility)
		authGroup.GET("/notifications", c.notification.ListNotifications)
		authGroup.POST("/notifications/:id/read", c.notification.MarkRead)

		// 讲师接口
		instructor := authGroup.Group("")
		instructor.Use(middleware.RoleMiddleware(model.Instructor))
		{
			instructor.POST("/courses", c.course.CreateCourse)
			instructor.PUT("/courses/:id", c.course.UpdateCourse)
			instructor.POST("/courses/:id/publish", c.course.Publish)
			instructor.POST("/courses/:id/modules", c.course.AddModule)
			instructor.POST("/modules/:id/contents", c.course.AddContent)
			instructor.POST("/contents/:id/quiz", c.course.AttachQuiz)
			instructor.POST("/contents/:id/assignment", c.course.AttachAssignment)
			instructor.POST("/contents/video/upload", c.course.UploadVideo)
			instructor.POST("/assignments/submissions/:submissionId/grade", c.grading.GradeSubmission)
			instructor.POST("/learning-paths", c.learningPath.CreatePath)
			instructor.POST("/learning-paths/:id/award-badges", c.learningPath.AwardBadges)
		}

		// 管理员接口
		admin := authGroup.Group("")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/badges", c.badge.CreateBadge)
			admin.POST("/badges/award", c.badge.AwardBadge)
		}
	}
}
