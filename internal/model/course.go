package model

// CourseCriteria 课程完成策略
type CourseCriteria string

const (
	CriteriaAllModules CourseCriteria = "all_modules"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title               string         `gorm:"size:255;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	InstructorID        uint           `gorm:"index;type:bigint unsigned" json:"instructorId"`
	Published           bool           `gorm:"default:false" json:"published"`
	CompletionCriteria  CourseCriteria `gorm:"size:32;default:'all_modules'" json:"completionCriteria"`
	MinimumScore        float64        `gorm:"default:0" json:"minimumScore"` // 0-100，及格线，约束测验成绩
	CertificateTemplate string         `gorm:"size:100;default:'default'" json:"certificateTemplate"`
	// 报名人数计数器，只通过报名事务内的原子自增更新
	EnrollmentCount int            `gorm:"default:0" json:"enrollmentCount"`
	Modules         []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	CourseID     uint   `gorm:"index;type:bigint unsigned;uniqueIndex:idx_course_order" json:"courseId"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Order        int    `gorm:"default:0;uniqueIndex:idx_course_order" json:"order"` // 课程内唯一
	QuizRequired bool   `gorm:"default:false" json:"quizRequired"`

	Contents []Content `gorm:"foreignKey:ModuleID" json:"contents,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
