package model

import "time"

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// Quiz 归属于一个 quiz 类型的内容（1:1）
// swagger:model Quiz
type Quiz struct {
	BaseModel
	ContentID    uint    `gorm:"type:bigint unsigned;uniqueIndex" json:"contentId"`
	Title        string  `gorm:"size:255" json:"title"`
	PassingScore float64 `gorm:"default:70" json:"passingScore"` // 0-100
	MaxAttempts  int     `gorm:"default:3" json:"maxAttempts"`
	TimeLimit    int     `gorm:"default:0" json:"timeLimit"` // 分钟，0 为不限

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	BaseModel
	QuizID uint         `gorm:"index;type:bigint unsigned" json:"quizId"`
	Type   QuestionType `gorm:"size:20;not null" json:"type"`
	Text   string       `gorm:"type:text;not null" json:"text"`
	Points float64      `gorm:"default:1" json:"points"`
	Order  int          `gorm:"default:0" json:"order"`

	Options []string `gorm:"serializer:json" json:"options,omitempty"`
	// 客观题的正确选项下标集合；简答题用 CorrectAnswer
	CorrectOptions []int  `gorm:"serializer:json" json:"-"`
	CorrectAnswer  string `gorm:"size:512" json:"-"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizAttempt 只追加的答题审计日志，评分从不修改已有记录
type QuizAttempt struct {
	BaseModel
	QuizID      uint               `gorm:"index;type:bigint unsigned" json:"quizId"`
	UserID      uint               `gorm:"index;type:bigint unsigned" json:"userId"`
	Score       float64            `gorm:"not null" json:"score"`
	Passed      bool               `gorm:"default:false" json:"passed"`
	TimeSpent   int                `gorm:"default:0" json:"timeSpent"` // 秒
	Answers     []QuestionResponse `gorm:"serializer:json" json:"answers"`
	SubmittedAt time.Time          `json:"submittedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// QuestionResponse 单题作答
type QuestionResponse struct {
	QuestionID      uint    `json:"questionId"`
	SelectedOptions []int   `json:"selectedOptions,omitempty"`
	Answer          string  `json:"answer,omitempty"`
	Earned          float64 `json:"earned"`
	Correct         bool    `json:"correct"`
}
