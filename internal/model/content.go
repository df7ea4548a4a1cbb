package model

import "fmt"

type ContentType string

const (
	ContentVideo        ContentType = "video"
	ContentDocument     ContentType = "document"
	ContentPresentation ContentType = "presentation"
	ContentQuiz         ContentType = "quiz"
	ContentAssignment   ContentType = "assignment"
	ContentLink         ContentType = "link"
)

// Content 模块下的学习内容，按类型携带各自的必填字段
// swagger:model Content
type Content struct {
	BaseModel
	ModuleID    uint        `gorm:"index;type:bigint unsigned" json:"moduleId"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Type        ContentType `gorm:"size:20;not null" json:"type"`
	Order       int         `gorm:"default:0" json:"order"`
	IsRequired  bool        `json:"isRequired"` // 选修内容不计入进度分母，创建时默认必修
	Description string      `gorm:"type:text" json:"description"`

	// 类型字段，仅与 Type 对应的字段有效
	VideoURL        string  `gorm:"size:512" json:"videoUrl,omitempty"`
	VideoDuration   float64 `gorm:"default:0" json:"videoDuration,omitempty"` // 秒
	DocumentURL     string  `gorm:"size:512" json:"documentUrl,omitempty"`
	PresentationURL string  `gorm:"size:512" json:"presentationUrl,omitempty"`
	LinkURL         string  `gorm:"size:512" json:"linkUrl,omitempty"`
}

func (Content) TableName() string {
	return "contents"
}

// Validate 创建时校验类型必填字段
func (c *Content) Validate() error {
	switch c.Type {
	case ContentVideo:
		if c.VideoURL == "" || c.VideoDuration <= 0 {
			return fmt.Errorf("video content requires videoUrl and videoDuration")
		}
	case ContentDocument:
		if c.DocumentURL == "" {
			return fmt.Errorf("document content requires documentUrl")
		}
	case ContentPresentation:
		if c.PresentationURL == "" {
			return fmt.Errorf("presentation content requires presentationUrl")
		}
	case ContentLink:
		if c.LinkURL == "" {
			return fmt.Errorf("link content requires linkUrl")
		}
	case ContentQuiz, ContentAssignment:
		// 测验/作业在各自的实体里校验
	default:
		return fmt.Errorf("unknown content type %q", c.Type)
	}
	return nil
}
