package model

type CertificateKind string

const (
	CertificateCourse   CertificateKind = "course"
	CertificateCategory CertificateKind = "category"
)

// Certificate 证书记录；(student, course) / (student, category) 唯一索引
// 保证签发幂等，后台任务重试不会产生重复记录
type Certificate struct {
	BaseModel
	StudentID  uint            `gorm:"index:idx_cert_course,unique;index:idx_cert_category,unique;type:bigint unsigned" json:"studentId"`
	Kind       CertificateKind `gorm:"size:20;not null" json:"kind"`
	CourseID   *uint           `gorm:"index:idx_cert_course,unique;type:bigint unsigned" json:"courseId,omitempty"`
	CategoryID *uint           `gorm:"index:idx_cert_category,unique;type:bigint unsigned" json:"categoryId,omitempty"`
	Serial     string          `gorm:"size:36;uniqueIndex" json:"serial"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// Notification 后台任务写入的站内通知
type Notification struct {
	BaseModel
	UserID  uint   `gorm:"index;type:bigint unsigned" json:"userId"`
	Title   string `gorm:"size:255" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	IsRead  bool   `gorm:"default:false" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}
