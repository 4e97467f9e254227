package model

// AssessmentKind 区分测试与考试两套提交/题目表
type AssessmentKind string

const (
	KindTest AssessmentKind = "test"
	KindExam AssessmentKind = "exam"
)

const DefaultAttemptLimit = 10

// swagger:model Test
type Test struct {
	BaseModel
	LessonID uint `gorm:"uniqueIndex;type:bigint unsigned" json:"lessonId"`
	Score    int  `gorm:"not null" json:"score"`      // 0 < score <= 200
	Attempts int  `gorm:"default:10" json:"attempts"` // 最大提交次数
}

func (Test) TableName() string {
	return "tests"
}

// swagger:model Exam
type Exam struct {
	BaseModel
	LessonID     uint `gorm:"uniqueIndex;type:bigint unsigned" json:"lessonId"`
	Score        int  `gorm:"not null" json:"score"`
	Attempts     int  `gorm:"default:10" json:"attempts"`
	TimerMinutes int  `gorm:"default:0" json:"timerMinutes"`
	MinScore     int  `gorm:"default:0" json:"minScore"`
}

func (Exam) TableName() string {
	return "exams"
}

// Assessment 是测试/考试在评分与次数控制上的统一视图，不落表
type Assessment struct {
	ID       uint
	LessonID uint
	Kind     AssessmentKind
	Score    int
	Attempts int
	MinScore int
}

func (t *Test) AsAssessment() Assessment {
	return Assessment{ID: t.ID, LessonID: t.LessonID, Kind: KindTest, Score: t.Score, Attempts: t.Attempts}
}

func (e *Exam) AsAssessment() Assessment {
	return Assessment{ID: e.ID, LessonID: e.LessonID, Kind: KindExam, Score: e.Score, Attempts: e.Attempts, MinScore: e.MinScore}
}
