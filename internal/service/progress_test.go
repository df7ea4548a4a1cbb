package service

import (
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestApplyContentProgressMonotonic(t *testing.T) {
	now := time.Now()
	cp := &model.ContentProgress{}

	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{ProgressValue: f64(60)}, now))
	assert.Equal(t, 60.0, cp.Progress)
	assert.Equal(t, model.ContentInProgress, cp.Status)

	// 进度回报变小，取历史最大
	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{ProgressValue: f64(30)}, now))
	assert.Equal(t, 60.0, cp.Progress)
}

func TestApplyContentProgressCompletionIsOneWay(t *testing.T) {
	now := time.Now()
	cp := &model.ContentProgress{}

	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{ProgressValue: f64(100)}, now))
	assert.Equal(t, model.ContentCompleted, cp.Status)
	require.NotNil(t, cp.CompletedAt)
	first := *cp.CompletedAt

	// 重复上报不改动完成时间
	later := now.Add(time.Hour)
	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{MarkCompleted: true}, later))
	assert.Equal(t, first, *cp.CompletedAt)
	assert.Equal(t, 100.0, cp.Progress)
}

func TestApplyContentProgressTimeSpent(t *testing.T) {
	now := time.Now()
	cp := &model.ContentProgress{}

	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{TimeSpentDelta: 120}, now))
	require.NoError(t, ApplyContentProgress(cp, ContentProgressUpdate{TimeSpentDelta: 30}, now))
	assert.Equal(t, 150, cp.TimeSpent)

	err := ApplyContentProgress(cp, ContentProgressUpdate{TimeSpentDelta: -5}, now)
	assert.Equal(t, util.KindValidation, util.KindOf(err))
	assert.Equal(t, 150, cp.TimeSpent)
}

func TestApplyContentProgressRejectsOutOfRange(t *testing.T) {
	cp := &model.ContentProgress{}
	err := ApplyContentProgress(cp, ContentProgressUpdate{ProgressValue: f64(120)}, time.Now())
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	err = ApplyContentProgress(cp, ContentProgressUpdate{ProgressValue: f64(-1)}, time.Now())
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestModulePercentExcludesOptionalContent(t *testing.T) {
	mod := &model.CourseModule{
		Contents: []model.Content{
			{BaseModel: model.BaseModel{ID: 1}, IsRequired: true},
			{BaseModel: model.BaseModel{ID: 2}, IsRequired: true},
			{BaseModel: model.BaseModel{ID: 3}, IsRequired: false},
		},
	}
	byContent := map[uint]*model.ContentProgress{
		1: {ContentID: 1, Status: model.ContentCompleted},
		3: {ContentID: 3, Status: model.ContentCompleted}, // 选修完成不进分母
	}
	assert.Equal(t, 50.0, ModulePercent(mod, byContent))
}

func TestModulePercentNoRequiredContent(t *testing.T) {
	mod := &model.CourseModule{
		Contents: []model.Content{
			{BaseModel: model.BaseModel{ID: 1}, IsRequired: false},
		},
	}
	assert.Equal(t, 100.0, ModulePercent(mod, nil))
}

func TestCoursePercent(t *testing.T) {
	assert.Equal(t, 0.0, CoursePercent(nil))
	assert.Equal(t, 50.0, CoursePercent([]float64{0, 100}))
	assert.InDelta(t, 66.66, CoursePercent([]float64{100, 100, 0}), 0.01)
}
