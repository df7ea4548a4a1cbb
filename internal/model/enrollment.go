package model

import "time"

type EnrollmentStatus string

const (
	EnrollNotStarted EnrollmentStatus = "not_started"
	EnrollInProgress EnrollmentStatus = "in_progress"
	EnrollCompleted  EnrollmentStatus = "completed"
	EnrollExpired    EnrollmentStatus = "expired"
)

// Enrollment 用户与课程的报名记录，进度与完成状态的唯一载体
// 不变量: certificate_issued=true 蕴含 progress=100 且 status=completed；
// progress 单调不减；version 用于乐观并发控制。
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID   uint             `gorm:"type:bigint unsigned;uniqueIndex:idx_user_course" json:"userId"`
	CourseID uint             `gorm:"type:bigint unsigned;uniqueIndex:idx_user_course" json:"courseId"`
	Status   EnrollmentStatus `gorm:"size:20;default:'not_started'" json:"status"`

	ProgressPercentage float64 `gorm:"default:0" json:"progressPercentage"`
	Version            int64   `gorm:"default:0" json:"-"` // 乐观锁版本号

	CertificateIssued   bool       `gorm:"default:false" json:"certificateIssued"` // 单向 false→true
	CertificateURL      string     `gorm:"size:512" json:"certificateUrl,omitempty"`
	CertificateIssuedOn *time.Time `json:"certificateIssuedOn,omitempty"`

	DueDate     *time.Time `json:"dueDate,omitempty"`
	IsRequired  bool       `gorm:"default:false" json:"isRequired"`
	RequiredBy  string     `gorm:"size:100" json:"requiredBy,omitempty"` // 指派来源（部门/合规策略）
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	ModuleProgress  []ModuleProgress  `gorm:"foreignKey:EnrollmentID" json:"moduleProgress,omitempty"`
	ContentProgress []ContentProgress `gorm:"foreignKey:EnrollmentID" json:"contentProgress,omitempty"`
	Badges          []EnrollmentBadge `gorm:"foreignKey:EnrollmentID" json:"badges,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type ContentProgressStatus string

const (
	ContentInProgress ContentProgressStatus = "in_progress"
	ContentCompleted  ContentProgressStatus = "completed"
)

// ContentProgress 单个内容的学习进度（原文档模型里的 completedContent[]）
type ContentProgress struct {
	BaseModel
	EnrollmentID uint                  `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_content" json:"enrollmentId"`
	ContentID    uint                  `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_content" json:"contentId"`
	Status       ContentProgressStatus `gorm:"size:20;default:'in_progress'" json:"status"`
	Progress     float64               `gorm:"default:0" json:"progress"`
	TimeSpent    int                   `gorm:"default:0" json:"timeSpent"` // 秒，只增不减
	CompletedAt  *time.Time            `json:"completedAt,omitempty"`      // 首次完成时写入，之后不变
}

func (ContentProgress) TableName() string {
	return "content_progress"
}

// ModuleProgress 模块级汇总（completedModules[]）
type ModuleProgress struct {
	BaseModel
	EnrollmentID uint       `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_module" json:"enrollmentId"`
	ModuleID     uint       `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_module" json:"moduleId"`
	Progress     float64    `gorm:"default:0" json:"progress"`
	BestScore    float64    `gorm:"default:0" json:"bestScore"` // 模块内测验最好成绩
	Attempts     int        `gorm:"default:0" json:"attempts"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}

// EnrollmentBadge 报名获得的徽章，(enrollment_id, badge_id) 唯一索引保证不重复
type EnrollmentBadge struct {
	BaseModel
	EnrollmentID uint      `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_badge" json:"enrollmentId"`
	BadgeID      uint      `gorm:"type:bigint unsigned;uniqueIndex:idx_enroll_badge" json:"badgeId"`
	EarnedAt     time.Time `json:"earnedAt"`
}

func (EnrollmentBadge) TableName() string {
	return "enrollment_badges"
}
