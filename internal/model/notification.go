package model

// Notification 站内通知，投递语义为 best-effort（至少一次，失败只记日志）
type Notification struct {
	BaseModel
	UserID   uint              `gorm:"index;type:bigint unsigned" json:"userId"`
	Title    string            `gorm:"size:255;not null" json:"title"`
	Message  string            `gorm:"type:text" json:"message"`
	Type     string            `gorm:"size:50" json:"type"` // certificate / badge / enrollment ...
	Metadata map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`
	Read     bool              `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
