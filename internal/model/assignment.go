package model

import "time"

type SubmissionType string

const (
	SubmissionText SubmissionType = "text"
	SubmissionFile SubmissionType = "file"
	SubmissionLink SubmissionType = "link"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionGraded   SubmissionStatus = "graded"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Assignment 归属于一个 assignment 类型的内容
// swagger:model Assignment
type Assignment struct {
	BaseModel
	ContentID      uint           `gorm:"type:bigint unsigned;uniqueIndex" json:"contentId"`
	Title          string         `gorm:"size:255" json:"title"`
	Instructions   string         `gorm:"type:text" json:"instructions"`
	SubmissionType SubmissionType `gorm:"size:10;default:'text'" json:"submissionType"`
	DueDate        *time.Time     `json:"dueDate,omitempty"`
	TotalPoints    float64        `gorm:"default:100" json:"totalPoints"`
	PassingPoints  float64        `gorm:"default:60" json:"passingPoints"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// AssignmentSubmission 学员提交，仅学员创建、教师评分可改
type AssignmentSubmission struct {
	BaseModel
	AssignmentID uint             `gorm:"index;type:bigint unsigned" json:"assignmentId"`
	UserID       uint             `gorm:"index;type:bigint unsigned" json:"userId"`
	Status       SubmissionStatus `gorm:"size:10;default:'pending'" json:"status"`

	Text    string `gorm:"type:text" json:"text,omitempty"`
	FileURL string `gorm:"size:512" json:"fileUrl,omitempty"`
	LinkURL string `gorm:"size:512" json:"linkUrl,omitempty"`

	SubmittedAt time.Time `json:"submittedAt"`
	IsLate      bool      `gorm:"default:false" json:"isLate"` // 提交时定格，评分不改写

	Score    float64    `gorm:"default:0" json:"score"`
	Feedback string     `gorm:"type:text" json:"feedback,omitempty"`
	GradedBy uint       `gorm:"type:bigint unsigned" json:"gradedBy,omitempty"`
	GradedAt *time.Time `json:"gradedAt,omitempty"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}
