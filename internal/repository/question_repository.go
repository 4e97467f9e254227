package repository

import (
	"edu_platform_backend/internal/model"

	"gorm.io/gorm"
)

// QuestionSource 评分引擎读取标准答案数据的入口
type QuestionSource interface {
	QuestionByID(id uint) (*model.Question, error)
	CorrectAnswers(questionID uint) ([]model.Answer, error)
	MatchingPairs(questionID uint) ([]model.MatchingPair, error)
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) QuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &q, nil
}

func (r *QuestionRepository) CorrectAnswers(questionID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Where("question_id = ? AND is_correct = ?", questionID, true).Find(&answers).Error
	return answers, err
}

func (r *QuestionRepository) MatchingPairs(questionID uint) ([]model.MatchingPair, error) {
	var pairs []model.MatchingPair
	err := r.DB.Where("question_id = ?", questionID).Find(&pairs).Error
	return pairs, err
}

func (r *QuestionRepository) QuestionsByAssessment(kind model.AssessmentKind, assessmentID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("kind = ? AND assessment_id = ?", kind, assessmentID).
		Order("number ASC").
		Find(&questions).Error
	return questions, err
}

// SumQuestionScores 发布校验用：某测评下全部题目分值之和
func (r *QuestionRepository) SumQuestionScores(kind model.AssessmentKind, assessmentID uint) (int, error) {
	var total *int
	err := r.DB.Model(&model.Question{}).
		Where("kind = ? AND assessment_id = ?", kind, assessmentID).
		Select("SUM(score)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
