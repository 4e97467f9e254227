package model

type QuestionType string

const (
	QuestionBoolean        QuestionType = "boolean"
	QuestionTest           QuestionType = "test"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionAnswerPhoto    QuestionType = "answer_with_photo"
	QuestionWithPhoto      QuestionType = "question_with_photo"
	QuestionMatching       QuestionType = "matching"
)

// Question 属于一个测试或考试（kind + assessment_id）
type Question struct {
	BaseModel
	Kind         AssessmentKind `gorm:"size:10;index:idx_question_owner" json:"kind"`
	AssessmentID uint           `gorm:"index:idx_question_owner;type:bigint unsigned" json:"assessmentId"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	Number       int            `gorm:"default:0" json:"number"`
	Score        int            `gorm:"not null" json:"score"`
	Type         QuestionType   `gorm:"size:30;not null" json:"type"`
	Hidden       bool           `gorm:"default:false" json:"hidden"`
	ImagePath    string         `gorm:"size:255" json:"imagePath,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"type:text" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	ImagePath  string `gorm:"size:255" json:"imagePath,omitempty"`
}

func (Answer) TableName() string {
	return "answers"
}

// MatchingOption 匹配题右侧选项，独立编号以便前端乱序展示
type MatchingOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Text       string `gorm:"type:text" json:"text"`
}

func (MatchingOption) TableName() string {
	return "matching_options"
}

// MatchingPair 匹配题左项，right_option_id 指向其正确右项
type MatchingPair struct {
	BaseModel
	QuestionID    uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	LeftText      string `gorm:"type:text" json:"leftText"`
	RightOptionID uint   `gorm:"type:bigint unsigned" json:"rightOptionId"`
}

func (MatchingPair) TableName() string {
	return "matching_pairs"
}
