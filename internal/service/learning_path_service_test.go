package service

import (
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePathValidation(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 1)

	_, err := env.path.CreatePath(instructor.ID, CreatePathRequest{Title: "empty"})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "dup",
		Courses: []PathCourseInput{{CourseID: courseA.ID}, {CourseID: courseA.ID}},
	})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	// key_courses 策略至少要有一门关键课程
	_, err = env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:              "no keys",
		CompletionCriteria: model.CriteriaKeyCourses,
		Courses:            []PathCourseInput{{CourseID: courseA.ID}, {CourseID: courseB.ID}},
	})
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "ghost course",
		Courses: []PathCourseInput{{CourseID: 9999}},
	})
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	path, err := env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "ok",
		Courses: []PathCourseInput{{CourseID: courseB.ID}, {CourseID: courseA.ID}},
	})
	require.NoError(t, err)
	require.Len(t, path.Courses, 2)
	assert.Equal(t, 0, path.Courses[0].Position)
	assert.Equal(t, 1, path.Courses[1].Position)
	assert.Equal(t, model.CriteriaAllCourses, path.CompletionCriteria)
}

func TestEnrollPathSkipsExistingEnrollments(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 1)

	// 学员早已单独报了 A
	_, err := env.enrollment.Enroll(student.ID, courseA.ID, EnrollRequest{})
	require.NoError(t, err)

	path, err := env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "Backend Track",
		Courses: []PathCourseInput{{CourseID: courseA.ID}, {CourseID: courseB.ID}},
	})
	require.NoError(t, err)

	_, err = env.path.EnrollPath(student.ID, path.ID, nil)
	require.NoError(t, err)

	enrollments, err := env.enrollments.ListByUser(student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)

	// 路径带入的报名有挂靠来源
	for _, e := range enrollments {
		if e.CourseID == courseB.ID {
			assert.True(t, e.IsRequired)
			assert.Equal(t, "learning_path:Backend Track", e.RequiredBy)
		}
	}
}

func TestGetPathProgress(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 1)

	path, err := env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "Two Steps",
		Courses: []PathCourseInput{{CourseID: courseA.ID}, {CourseID: courseB.ID}},
	})
	require.NoError(t, err)

	env.completeCourse(t, student.ID, courseA)

	progress, err := env.path.GetPathProgress(student.ID, path.ID)
	require.NoError(t, err)
	assert.False(t, progress.Completion.IsComplete)
	assert.Equal(t, 50.0, progress.Progress)
	require.Len(t, progress.Courses, 2)
	assert.True(t, progress.Courses[0].Enrolled)
	assert.Equal(t, model.EnrollCompleted, progress.Courses[0].Status)
	assert.False(t, progress.Courses[1].Enrolled)

	env.completeCourse(t, student.ID, courseB)

	progress, err = env.path.GetPathProgress(student.ID, path.ID)
	require.NoError(t, err)
	assert.True(t, progress.Completion.IsComplete)
	assert.Equal(t, 100.0, progress.Progress)
}

func TestPathBadgeAwardedOnceOnKeyCourseCompletion(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	courseA := env.createCourse(t, instructor.ID, 1)
	courseB := env.createCourse(t, instructor.ID, 1)
	courseC := env.createCourse(t, instructor.ID, 1)

	badge := &model.Badge{Name: "Pathfinder", Type: model.BadgeLearningPath}
	require.NoError(t, env.badges.Create(badge))

	path, err := env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:              "Key Track",
		CompletionCriteria: model.CriteriaKeyCourses,
		CompletionBadgeID:  &badge.ID,
		Courses: []PathCourseInput{
			{CourseID: courseA.ID, IsKey: true},
			{CourseID: courseB.ID},
			{CourseID: courseC.ID, IsKey: true},
		},
	})
	require.NoError(t, err)

	// 完成第一门关键课程还不够
	env.completeCourse(t, student.ID, courseA)
	held, err := env.enrollments.HeldBadgeIDs(student.ID)
	require.NoError(t, err)
	assert.False(t, held[badge.ID])

	// 第二门关键课程完成时，课程提交钩子自动复评并发徽章，B 未报名也无妨
	env.completeCourse(t, student.ID, courseC)
	held, err = env.enrollments.HeldBadgeIDs(student.ID)
	require.NoError(t, err)
	assert.True(t, held[badge.ID])

	// 手工重跑清点不重复发
	awarded, err := env.path.AwardPathBadges(path.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, awarded)
}

func TestAwardPathBadgesWithoutBadgeIsNoop(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, model.Instructor)
	student := env.createUser(t, model.Student)
	course := env.createCourse(t, instructor.ID, 1)

	path, err := env.path.CreatePath(instructor.ID, CreatePathRequest{
		Title:   "No Badge",
		Courses: []PathCourseInput{{CourseID: course.ID}},
	})
	require.NoError(t, err)

	env.completeCourse(t, student.ID, course)

	awarded, err := env.path.AwardPathBadges(path.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, awarded)
}
