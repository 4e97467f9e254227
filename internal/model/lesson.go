package model

type LessonKind string

const (
	LessonLecture LessonKind = "lecture"
	LessonTest    LessonKind = "test"
	LessonExam    LessonKind = "exam"
)

// Lesson 课程内的一节，按 number 排序；每节最多拥有一个讲义/测试/考试
type Lesson struct {
	BaseModel
	CourseID uint       `gorm:"index;type:bigint unsigned" json:"courseId"`
	Number   int        `gorm:"not null" json:"number"` // 课程内序号，从 1 开始
	Kind     LessonKind `gorm:"size:20;not null" json:"kind"`
	Title    string     `gorm:"size:255;not null" json:"title"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model Lecture
type Lecture struct {
	BaseModel
	LessonID uint   `gorm:"uniqueIndex;type:bigint unsigned" json:"lessonId"`
	Content  string `gorm:"type:text" json:"content"`
	Score    int    `gorm:"default:0" json:"score"` // 确认完成时计入课程成绩的分值
}

func (Lecture) TableName() string {
	return "lectures"
}

type StudentLessonStatus string

const (
	LessonStatusNew       StudentLessonStatus = "new"
	LessonStatusAvailable StudentLessonStatus = "available"
	LessonStatusActive    StudentLessonStatus = "active"
	LessonStatusBlocked   StudentLessonStatus = "blocked"
	LessonStatusCompleted StudentLessonStatus = "completed"
)

// StudentLesson 学生在某一节上的进度记录，驱动解锁状态机
// 报名时为课程的每一节各建一行；教师插入新节时补建
type StudentLesson struct {
	BaseModel
	StudentID uint                `gorm:"index:idx_student_lesson,unique;type:bigint unsigned" json:"studentId"`
	LessonID  uint                `gorm:"index:idx_student_lesson,unique;type:bigint unsigned" json:"lessonId"`
	Status    StudentLessonStatus `gorm:"size:20;default:'new'" json:"status"`
	Score     *int                `json:"score,omitempty"`
	Attempt   int                 `gorm:"default:0" json:"attempt"`
}

func (StudentLesson) TableName() string {
	return "student_lessons"
}
