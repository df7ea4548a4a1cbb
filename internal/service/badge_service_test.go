package service

import (
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEligibilityEngagement(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 1)

	badge := &model.Badge{Name: "Committed", Type: model.BadgeEngagement, RequiredCount: 2}
	require.NoError(t, env.badge.CreateBadge(badge))

	env.completeCourse(t, student.ID, courseA)

	out, err := env.badge.CheckEligibility(student.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Eligible)
	assert.Equal(t, 50.0, out[0].Progress)
	assert.Equal(t, "1 of 2 courses completed", out[0].Reason)

	env.completeCourse(t, student.ID, courseB)

	out, err = env.badge.CheckEligibility(student.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Eligible)
	assert.Equal(t, 100.0, out[0].Progress)
}

func TestCheckEligibilityExcludesHeldAndSortsEligibleFirst(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 2)

	// A 的完成徽章会在课程完成事务里自动发放
	autoBadge := &model.Badge{Name: "A done", Type: model.BadgeCourseCompletion, CourseID: &courseA.ID}
	require.NoError(t, env.badge.CreateBadge(autoBadge))
	bBadge := &model.Badge{Name: "B done", Type: model.BadgeCourseCompletion, CourseID: &courseB.ID}
	require.NoError(t, env.badge.CreateBadge(bBadge))
	engagement := &model.Badge{Name: "One course", Type: model.BadgeEngagement, RequiredCount: 1}
	require.NoError(t, env.badge.CreateBadge(engagement))

	env.completeCourse(t, student.ID, courseA)
	eB, err := env.enrollment.Enroll(student.ID, courseB.ID, EnrollRequest{})
	require.NoError(t, err)
	_, err = env.enrollment.TrackContentProgress(student.ID, eB.ID,
		courseB.Modules[0].Contents[0].ID, ContentProgressUpdate{MarkCompleted: true})
	require.NoError(t, err)

	out, err := env.badge.CheckEligibility(student.ID)
	require.NoError(t, err)

	// 已持有的 A 徽章不出现在清单里
	require.Len(t, out, 2)
	for _, el := range out {
		assert.NotEqual(t, autoBadge.ID, el.Badge.ID)
	}

	// 可领取的在前：engagement 门槛 1 已达标，B 还在半程
	assert.Equal(t, engagement.ID, out[0].Badge.ID)
	assert.True(t, out[0].Eligible)
	assert.Equal(t, bBadge.ID, out[1].Badge.ID)
	assert.False(t, out[1].Eligible)
	assert.Equal(t, 50.0, out[1].Progress)
}

func TestCheckEligibilityNotEnrolled(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	badge := &model.Badge{Name: "Finisher", Type: model.BadgeCourseCompletion, CourseID: &course.ID}
	require.NoError(t, env.badge.CreateBadge(badge))

	out, err := env.badge.CheckEligibility(student.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Eligible)
	assert.Equal(t, "not enrolled in the course", out[0].Reason)
}

func TestAwardIsIdempotentPerUser(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	badge := &model.Badge{Name: "Manual", Type: model.BadgeSpecial, Requirements: "staff pick"}
	require.NoError(t, env.badge.CreateBadge(badge))

	e, err := env.enrollment.Enroll(student.ID, course.ID, EnrollRequest{})
	require.NoError(t, err)

	added, err := env.badge.Award(e.ID, badge.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = env.badge.Award(e.ID, badge.ID)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = env.badge.Award(e.ID, 9999)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestCreateBadgeValidation(t *testing.T) {
	env := newTestEnv(t)

	err := env.badge.CreateBadge(&model.Badge{Name: "x", Type: model.BadgeCourseCompletion})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	err = env.badge.CreateBadge(&model.Badge{Name: "x", Type: model.BadgeLearningPath})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	err = env.badge.CreateBadge(&model.Badge{Name: "x", Type: model.BadgeEngagement})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	err = env.badge.CreateBadge(&model.Badge{Name: "x", Type: model.BadgeSpecial})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	err = env.badge.CreateBadge(&model.Badge{Name: "x", Type: "bogus"})
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}
