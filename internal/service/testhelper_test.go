package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库，连接数限为1避免sqlite锁冲突
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// fakeIssuer 记录签发次数的证书签发方
type fakeIssuer struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeIssuer) Generate(_ context.Context, _ *model.User, course *model.Course) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return "", fmt.Errorf("issuer unavailable")
	}
	return fmt.Sprintf("https://certs.example/%d/%d.html", course.ID, f.calls), nil
}

func (f *fakeIssuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	quizzes     *repository.QuizRepository
	assignments *repository.AssignmentRepository
	paths       *repository.LearningPathRepository
	badges      *repository.BadgeRepository
	issuer      *fakeIssuer

	notification *NotificationService
	enrollment   *EnrollmentService
	grading      *GradingService
	badge        *BadgeService
	path         *LearningPathService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	cfg := &config.Config{
		Completion: config.CompletionConfig{
			CountFailedQuizTime: true,
			MaxWriteRetries:     3,
		},
	}

	env := &testEnv{
		db:          db,
		cfg:         cfg,
		users:       repository.NewUserRepository(db),
		courses:     repository.NewCourseRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		quizzes:     repository.NewQuizRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		paths:       repository.NewLearningPathRepository(db),
		badges:      repository.NewBadgeRepository(db),
		issuer:      &fakeIssuer{},
	}

	env.notification = NewNotificationService(repository.NewNotificationRepository(db), nil, "lms:notifications")
	env.enrollment = NewEnrollmentService(
		env.enrollments, env.courses, env.quizzes, env.badges, env.users,
		env.issuer, env.notification, cfg, db,
	)
	env.grading = NewGradingService(env.quizzes, env.assignments, env.courses, env.enrollment, cfg)
	env.badge = NewBadgeService(env.badges, env.enrollments, env.paths, env.notification, db)
	env.path = NewLearningPathService(
		env.paths, env.courses, env.enrollments, env.badges, env.enrollment, env.notification, db,
	)
	env.enrollment.SetPathCoordinator(env.path)

	return env
}

func (env *testEnv) createUser(t *testing.T, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Name:     fmt.Sprintf("%s user", role),
		Email:    fmt.Sprintf("%s-%d@example.com", role, nextSeq()),
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, env.users.Create(u))
	return u
}

var (
	seqMu sync.Mutex
	seq   int
)

func nextSeq() int {
	seqMu.Lock()
	defer seqMu.Unlock()
	seq++
	return seq
}

// createCourse 已发布课程，每个模块一个必修文档内容
func (env *testEnv) createCourse(t *testing.T, instructorID uint, moduleCount int) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:              fmt.Sprintf("Course %d", nextSeq()),
		InstructorID:       instructorID,
		Published:          true,
		CompletionCriteria: model.CriteriaAllModules,
	}
	for i := 0; i < moduleCount; i++ {
		course.Modules = append(course.Modules, model.CourseModule{
			Title: fmt.Sprintf("Module %d", i+1),
			Order: i,
			Contents: []model.Content{
				{
					Title:       fmt.Sprintf("Reading %d", i+1),
					Type:        model.ContentDocument,
					Order:       0,
					IsRequired:  true,
					DocumentURL: "https://docs.example/reading",
				},
			},
		})
	}
	require.NoError(t, env.courses.Create(course))

	loaded, err := env.courses.FindByID(course.ID)
	require.NoError(t, err)
	return loaded
}

// completeCourse 报名并把课程的全部内容标记完成
func (env *testEnv) completeCourse(t *testing.T, userID uint, course *model.Course) *model.Enrollment {
	t.Helper()
	e, err := env.enrollment.Enroll(userID, course.ID, EnrollRequest{})
	require.NoError(t, err)
	return env.finishCourse(t, userID, e, course)
}

func (env *testEnv) finishCourse(t *testing.T, userID uint, e *model.Enrollment, course *model.Course) *model.Enrollment {
	t.Helper()
	var last *model.Enrollment
	for _, m := range course.Modules {
		for _, c := range m.Contents {
			var err error
			last, err = env.enrollment.TrackContentProgress(userID, e.ID, c.ID,
				ContentProgressUpdate{MarkCompleted: true})
			require.NoError(t, err)
		}
	}
	return last
}
