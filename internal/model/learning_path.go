package model

type PathCriteria string

const (
	CriteriaAllCourses PathCriteria = "all_courses"
	CriteriaKeyCourses PathCriteria = "key_courses"
)

// swagger:model LearningPath
type LearningPath struct {
	BaseModel
	Title              string       `gorm:"size:255;not null" json:"title"`
	Description        string       `gorm:"type:text" json:"description"`
	CreatorID          uint         `gorm:"index;type:bigint unsigned" json:"creatorId"`
	CompletionCriteria PathCriteria `gorm:"size:32;default:'all_courses'" json:"completionCriteria"`
	CompletionBadgeID  *uint        `gorm:"type:bigint unsigned" json:"completionBadgeId,omitempty"`

	Courses []LearningPathCourse `gorm:"foreignKey:PathID" json:"courses,omitempty"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// LearningPathCourse 路径-课程关联，IsKey 标记 key_courses 策略下的必修子集
type LearningPathCourse struct {
	BaseModel
	PathID   uint `gorm:"type:bigint unsigned;uniqueIndex:idx_path_course" json:"pathId"`
	CourseID uint `gorm:"type:bigint unsigned;uniqueIndex:idx_path_course" json:"courseId"`
	Position int  `gorm:"default:0" json:"position"`
	IsKey    bool `gorm:"default:false" json:"isKey"`
}

func (LearningPathCourse) TableName() string {
	return "learning_path_courses"
}
