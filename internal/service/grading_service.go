package service

import (
	"fmt"
	"math"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/util"
)

// SubmittedPair 学生提交的一组匹配：left 为左项 ID，right 为所选右项 ID
type SubmittedPair struct {
	LeftID  uint `json:"leftId" binding:"required"`
	RightID uint `json:"rightId" binding:"required"`
}

// SubmittedAnswer 单题作答。三个字段按题型互斥使用：
// 单选类填 answerId，多选填 answerIds，匹配题填 pairs
type SubmittedAnswer struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	AnswerID   uint            `json:"answerId"`
	AnswerIDs  []uint          `json:"answerIds"`
	Pairs      []SubmittedPair `json:"pairs"`
}

// matchingDivisor 匹配题每组正确配对的固定分值因子：score/4
const matchingDivisor = 4

// GradingService 按题型对单题作答打分，不落库
type GradingService struct {
	Questions repository.QuestionSource
}

func NewGradingService(questions repository.QuestionSource) *GradingService {
	return &GradingService{Questions: questions}
}

// GradeQuestion 对一道题打分，返回整数得分。
// 未识别的题型按单选规则兜底处理
func (s *GradingService) GradeQuestion(question *model.Question, answer SubmittedAnswer) (int, error) {
	switch question.Type {
	case model.QuestionMultipleChoice:
		return s.gradeMultipleChoice(question, answer.AnswerIDs)
	case model.QuestionMatching:
		return s.gradeMatching(question, answer.Pairs)
	default:
		return s.gradeClassic(question, answer.AnswerID)
	}
}

// gradeClassic 单选类题：命中唯一正确答案得满分，否则 0 分
func (s *GradingService) gradeClassic(question *model.Question, answerID uint) (int, error) {
	correct, err := s.Questions.CorrectAnswers(question.ID)
	if err != nil {
		return 0, err
	}
	if len(correct) == 0 {
		return 0, fmt.Errorf("question %d has no correct answer: %w", question.ID, util.ErrDataIntegrity)
	}
	if answerID == correct[0].ID {
		return question.Score, nil
	}
	return 0, nil
}

// gradeMultipleChoice 多选题：每个正确选项计 score/C 分，
// 多选的每个多余选项按同样单价扣分，结果下限 0，整题只舍入一次
func (s *GradingService) gradeMultipleChoice(question *model.Question, answerIDs []uint) (int, error) {
	correct, err := s.Questions.CorrectAnswers(question.ID)
	if err != nil {
		return 0, err
	}
	if len(correct) == 0 {
		return 0, fmt.Errorf("question %d has no correct answers: %w", question.ID, util.ErrDataIntegrity)
	}

	correctSet := make(map[uint]struct{}, len(correct))
	for _, a := range correct {
		correctSet[a.ID] = struct{}{}
	}

	perAnswer := float64(question.Score) / float64(len(correct))
	hits := 0
	for _, id := range answerIDs {
		if _, ok := correctSet[id]; ok {
			hits++
		}
	}

	total := float64(hits) * perAnswer
	if extra := len(answerIDs) - len(correct); extra > 0 {
		total -= float64(extra) * perAnswer
	}
	if total < 0 {
		total = 0
	}
	return int(math.Round(total)), nil
}

// gradeMatching 匹配题：每组配对正确计 score/4 分，整题只舍入一次
func (s *GradingService) gradeMatching(question *model.Question, pairs []SubmittedPair) (int, error) {
	standard, err := s.Questions.MatchingPairs(question.ID)
	if err != nil {
		return 0, err
	}

	rightByLeft := make(map[uint]uint, len(standard))
	for _, p := range standard {
		rightByLeft[p.ID] = p.RightOptionID
	}

	perPair := float64(question.Score) / float64(matchingDivisor)
	total := 0.0
	for _, p := range pairs {
		if want, ok := rightByLeft[p.LeftID]; ok && want == p.RightID {
			total += perPair
		}
	}
	return int(math.Round(total)), nil
}
