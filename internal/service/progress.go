package service

import (
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

// ContentProgressUpdate 一次内容进度上报
type ContentProgressUpdate struct {
	// 0-100 的显式进度值，>=100 视为完成
	ProgressValue *float64 `json:"progressValue,omitempty"`
	// 显式标记完成（比如文档/链接类内容点开即完成）
	MarkCompleted bool `json:"markCompleted,omitempty"`
	// 本次新增学习时长（秒），只做累加
	TimeSpentDelta int `json:"timeSpentDelta,omitempty"`
}

// ApplyContentProgress 更新单条内容进度。
// 完成是单向的：首次达到完成时写 CompletedAt，重复上报不再改动；
// 进度值取历史最大，时长只累加，负增量直接拒绝。
func ApplyContentProgress(cp *model.ContentProgress, u ContentProgressUpdate, now time.Time) error {
	if u.TimeSpentDelta < 0 {
		return util.ErrNegativeTimeSpent
	}
	cp.TimeSpent += u.TimeSpentDelta

	if u.ProgressValue != nil {
		v := *u.ProgressValue
		if v < 0 || v > 100 {
			return util.ValidationErr("progressValue must be within 0-100")
		}
		if v > cp.Progress {
			cp.Progress = v
		}
	}

	completed := u.MarkCompleted || (u.ProgressValue != nil && *u.ProgressValue >= 100)
	if completed && cp.Status != model.ContentCompleted {
		cp.Status = model.ContentCompleted
		cp.Progress = 100
		t := now
		cp.CompletedAt = &t
	}
	if cp.Status == "" {
		cp.Status = model.ContentInProgress
	}
	return nil
}

// ModulePercent 模块进度 = 100 × 已完成必修内容数 / 必修内容总数。
// 选修内容照常记录但不进分母；没有必修内容的模块视为已完成（100）。
func ModulePercent(mod *model.CourseModule, byContent map[uint]*model.ContentProgress) float64 {
	total := 0
	done := 0
	for _, c := range mod.Contents {
		if !c.IsRequired {
			continue
		}
		total++
		if cp, ok := byContent[c.ID]; ok && cp.Status == model.ContentCompleted {
			done++
		}
	}
	if total == 0 {
		return 100
	}
	return 100 * float64(done) / float64(total)
}

// CoursePercent 课程进度 = 各模块进度的算术平均（不加权）
func CoursePercent(modulePercents []float64) float64 {
	if len(modulePercents) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range modulePercents {
		sum += p
	}
	return sum / float64(len(modulePercents))
}
