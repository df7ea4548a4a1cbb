package service

import (
	"sync"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollRules(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.EnrollNotStarted, e.Status)

	// 重复报名
	_, err = env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)

	// 报名计数器在同一事务内自增
	loaded, err := env.courses.FindByID(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.EnrollmentCount)
}

func TestEnrollRejectsUnpublishedCourse(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)

	course := env.createCourse(t, instructor.ID, 1)
	course.Published = false
	require.NoError(t, env.courses.Update(course))

	_, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	assert.ErrorIs(t, err, util.ErrCourseNotPublished)
}

func TestProgressRollupAcrossModules(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 2)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	// 第一个模块完成：课程进度 50，状态进入 in_progress
	first := course.Modules[0].Contents[0]
	updated, err := env.enrollment.TrackContentProgress(student.ID, e.ID, first.ID,
		ContentProgressUpdate{MarkCompleted: true, TimeSpentDelta: 300})
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.ProgressPercentage)
	assert.Equal(t, model.EnrollInProgress, updated.Status)
	assert.False(t, updated.CertificateIssued)

	// 第二个模块完成：100，completed，证书与完成时间就位
	second := course.Modules[1].Contents[0]
	updated, err = env.enrollment.TrackContentProgress(student.ID, e.ID, second.ID,
		ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.ProgressPercentage)
	assert.Equal(t, model.EnrollCompleted, updated.Status)
	assert.True(t, updated.CertificateIssued)
	assert.NotNil(t, updated.CompletedAt)

	// 证书URL在提交后回填
	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, persisted.CertificateURL)
	assert.Equal(t, 1, env.issuer.count())
}

func TestCourseProgressNeverDecreases(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 2)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	first := course.Modules[0].Contents[0]
	updated, err := env.enrollment.TrackContentProgress(student.ID, e.ID, first.ID,
		ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.ProgressPercentage)

	// 后续低进度上报不把课程进度拉回去
	updated, err = env.enrollment.TrackContentProgress(student.ID, e.ID, first.ID,
		ContentProgressUpdate{ProgressValue: f64(10)})
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.ProgressPercentage)
}

func TestCertificateIssuedExactlyOnceOnRepeatedTriggers(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	badge := &model.Badge{Name: "Finisher", Type: model.BadgeCourseCompletion, CourseID: &course.ID}
	require.NoError(t, env.badges.Create(badge))

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)
	content := course.Modules[0].Contents[0]

	for i := 0; i < 5; i++ {
		_, err := env.enrollment.TrackContentProgress(student.ID, e.ID, content.ID,
			ContentProgressUpdate{MarkCompleted: true})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, env.issuer.count())

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	require.Len(t, persisted.Badges, 1)
	assert.Equal(t, badge.ID, persisted.Badges[0].BadgeID)

	// 完成通知：证书一条 + 徽章一条
	ns, total, err := env.notification.ListForUser(student.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, ns, 2)
}

func TestCertificateIssuedExactlyOnceUnderConcurrency(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)
	content := course.Modules[0].Contents[0]

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.enrollment.TrackContentProgress(student.ID, e.ID, content.ID,
				ContentProgressUpdate{MarkCompleted: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, env.issuer.count())

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollCompleted, persisted.Status)
	assert.True(t, persisted.CertificateIssued)
}

func TestIssuerFailureDoesNotRollBackCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.issuer.fail = true
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	updated, err := env.enrollment.TrackContentProgress(student.ID, e.ID,
		course.Modules[0].Contents[0].ID, ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)

	assert.Equal(t, model.EnrollCompleted, updated.Status)
	assert.True(t, updated.CertificateIssued)

	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.True(t, persisted.CertificateIssued)
	assert.Empty(t, persisted.CertificateURL) // 工件没生成，门禁已关闭
}

func TestLazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	past := time.Now().Add(-24 * time.Hour)
	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{DueDate: &past})
	require.NoError(t, err)

	_, err = env.enrollment.TrackContentProgress(student.ID, e.ID,
		course.Modules[0].Contents[0].ID, ContentProgressUpdate{MarkCompleted: true})
	assert.ErrorIs(t, err, util.ErrEnrollmentExpired)

	// 过期状态已落库
	persisted, err := env.enrollments.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollExpired, persisted.Status)
}

func TestExpiredEnrollmentCanFinishWhenPolicyAllows(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Completion.AllowCompletionAfterExpiry = true
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	past := time.Now().Add(-24 * time.Hour)
	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{DueDate: &past})
	require.NoError(t, err)

	updated, err := env.enrollment.TrackContentProgress(student.ID, e.ID,
		course.Modules[0].Contents[0].ID, ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, model.EnrollCompleted, updated.Status)
	assert.True(t, updated.CertificateIssued)
}

func TestProgressForbiddenForOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	other := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	_, err = env.enrollment.TrackContentProgress(other.ID, e.ID,
		course.Modules[0].Contents[0].ID, ContentProgressUpdate{MarkCompleted: true})
	assert.Equal(t, util.KindForbidden, util.KindOf(err))

	_, err = env.enrollment.GetEnrollment(other.ID, e.ID, model.Student)
	assert.Equal(t, util.KindForbidden, util.KindOf(err))
}
