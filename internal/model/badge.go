package model

type BadgeType string

const (
	BadgeCourseCompletion BadgeType = "course_completion"
	BadgeLearningPath     BadgeType = "learning_path"
	BadgeSkillMastery     BadgeType = "skill_mastery"
	BadgeEngagement       BadgeType = "engagement"
	BadgeAchievement      BadgeType = "achievement"
	BadgeSpecial          BadgeType = "special"
)

// Badge 徽章定义，按类型携带各自的条件字段
// swagger:model Badge
type Badge struct {
	BaseModel
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:255" json:"icon"`
	Type        BadgeType `gorm:"size:32;not null" json:"type"`
	Points      int       `gorm:"default:0" json:"points"`

	// 按类型的条件字段
	CourseID       *uint  `gorm:"type:bigint unsigned" json:"courseId,omitempty"`       // course_completion
	LearningPathID *uint  `gorm:"type:bigint unsigned" json:"learningPathId,omitempty"` // learning_path
	SkillID        *uint  `gorm:"type:bigint unsigned" json:"skillId,omitempty"`        // skill_mastery
	RequiredCount  int    `gorm:"default:0" json:"requiredCount"`                       // engagement: 完成课程数门槛
	Requirements   string `gorm:"type:text" json:"requirements,omitempty"`              // special 等类型的文字说明
}

func (Badge) TableName() string {
	return "badges"
}
