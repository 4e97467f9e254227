package model

import "encoding/json"

// StudentAttempt 一次提交记录的公共形态；score 在评分落库前为 nil，
// 评分完成后仅赋值一次
type StudentAttempt struct {
	BaseModel
	StudentID     uint `gorm:"index:idx_attempt_seq;type:bigint unsigned" json:"studentId"`
	AssessmentID  uint `gorm:"index:idx_attempt_seq;type:bigint unsigned" json:"assessmentId"`
	AttemptNumber int  `gorm:"not null" json:"attemptNumber"` // 1 起，按 student+assessment 单调递增
	Score         *int `json:"score"`
}

// 测试与考试各自落表，结构共享
type StudentTestAttempt struct {
	StudentAttempt
}

func (StudentTestAttempt) TableName() string {
	return "student_test_attempts"
}

type StudentExamAttempt struct {
	StudentAttempt
}

func (StudentExamAttempt) TableName() string {
	return "student_exam_attempts"
}

// StudentAnswerDetail 单选类题目的判分明细
type StudentAnswerDetail struct {
	BaseModel
	Kind       AssessmentKind `gorm:"size:10;index:idx_answer_detail" json:"kind"`
	AttemptID  uint           `gorm:"index:idx_answer_detail;type:bigint unsigned" json:"attemptId"`
	QuestionID uint           `gorm:"type:bigint unsigned" json:"questionId"`
	AnswerID   uint           `gorm:"type:bigint unsigned" json:"answerId"`
	Score      int            `gorm:"default:0" json:"score"`
}

func (StudentAnswerDetail) TableName() string {
	return "student_answer_details"
}

// StudentAnswersDetail 多选题判分明细，answer_ids 为 JSON 数组
type StudentAnswersDetail struct {
	BaseModel
	Kind       AssessmentKind  `gorm:"size:10;index:idx_answers_detail" json:"kind"`
	AttemptID  uint            `gorm:"index:idx_answers_detail;type:bigint unsigned" json:"attemptId"`
	QuestionID uint            `gorm:"type:bigint unsigned" json:"questionId"`
	AnswerIDs  json.RawMessage `gorm:"type:json" json:"answerIds"`
	Score      int             `gorm:"default:0" json:"score"`
}

func (StudentAnswersDetail) TableName() string {
	return "student_answers_details"
}

// StudentMatchingDetail 匹配题判分明细，pairs 为 JSON 的 (left,right) 列表
type StudentMatchingDetail struct {
	BaseModel
	Kind       AssessmentKind  `gorm:"size:10;index:idx_matching_detail" json:"kind"`
	AttemptID  uint            `gorm:"index:idx_matching_detail;type:bigint unsigned" json:"attemptId"`
	QuestionID uint            `gorm:"type:bigint unsigned" json:"questionId"`
	Pairs      json.RawMessage `gorm:"type:json" json:"pairs"`
	Score      int             `gorm:"default:0" json:"score"`
}

func (StudentMatchingDetail) TableName() string {
	return "student_matching_details"
}

// AttemptQuestionDetail 一次提交里单个题目的判分视图（跨三类明细表），不落表
type AttemptQuestionDetail struct {
	QuestionID uint            `json:"questionId"`
	Score      int             `json:"score"`
	AnswerID   *uint           `json:"answerId,omitempty"`
	AnswerIDs  json.RawMessage `json:"answerIds,omitempty"`
	Pairs      json.RawMessage `json:"pairs,omitempty"`
}
