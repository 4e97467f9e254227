package model

// swagger:model Category
type Category struct {
	BaseModel
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}

// swagger:model Course
type Course struct {
	BaseModel
	CategoryID  uint   `gorm:"index;type:bigint unsigned" json:"categoryId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsPublished bool   `gorm:"default:false" json:"isPublished"`
}

func (Course) TableName() string {
	return "courses"
}

type StudentCourseStatus string

const (
	CourseInProgress StudentCourseStatus = "in_progress"
	CourseCompleted  StudentCourseStatus = "completed"
)

// StudentCourse 学生与课程的关联：累计成绩与完成进度
// grade 上限由数据库约束保证（≤200）
type StudentCourse struct {
	BaseModel
	StudentID uint                `gorm:"index:idx_student_course,unique;type:bigint unsigned" json:"studentId"`
	CourseID  uint                `gorm:"index:idx_student_course,unique;type:bigint unsigned" json:"courseId"`
	Grade     int                 `gorm:"default:0;check:grade <= 200" json:"grade"`
	Progress  int                 `gorm:"default:0" json:"progress"` // 0-100
	Status    StudentCourseStatus `gorm:"size:20;default:'in_progress'" json:"status"`
}

func (StudentCourse) TableName() string {
	return "student_courses"
}
